package errors

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var italian = map[string]string{
	"Already working":                                                                           "Generazione in corso",
	"Wait for the current generation to finish before starting another one.":                    "Attendi la fine della generazione corrente prima di avviarne un'altra.",
	"Too much text":                                                                             "Testo troppo lungo",
	"The request is too long for the on-device model. Shorten it or start a new conversation.":  "La richiesta è troppo lunga per il modello sul dispositivo. Accorciala o inizia una nuova conversazione.",
	"Language not supported":                                                                    "Lingua non supportata",
	"The on-device model does not support this language yet.":                                   "Il modello sul dispositivo non supporta ancora questa lingua.",
	"Request declined":                                                                          "Richiesta rifiutata",
	"The model declined this request. Try rephrasing it.":                                       "Il modello ha rifiutato la richiesta. Prova a riformularla.",
	"Generation failed":                                                                         "Generazione non riuscita",
	"The model could not produce a result. Please try again.":                                   "Il modello non è riuscito a produrre un risultato. Riprova.",
	"A helper step failed while generating. Please try again.":                                  "Un passaggio di supporto non è riuscito durante la generazione. Riprova.",
	"The %s step failed while generating. Please try again.":                                    "Il passaggio %s non è riuscito durante la generazione. Riprova.",
	"Unusable result":                                                                           "Risultato non utilizzabile",
	"The result did not have the expected shape. Check your input and try a different request.": "Il risultato non ha la forma prevista. Controlla i dati inseriti e prova una richiesta diversa.",
	"Taking too long":                                                                           "Tempo scaduto",
	"The model did not answer in time. Please try again.":                                       "Il modello non ha risposto in tempo. Riprova.",
	"Getting ready":                                                                             "Preparazione in corso",
	"The assistant is still starting up. Try again in a moment.":                                "L'assistente si sta ancora avviando. Riprova tra un momento.",
	"Cancelled":                                                                                 "Annullato",
	"The generation was cancelled.":                                                             "La generazione è stata annullata.",
	"Slow down":                                                                                 "Troppe richieste",
	"Too many requests in the last minute. Wait a little and try again.":                        "Troppe richieste nell'ultimo minuto. Attendi un po' e riprova.",
	"Something went wrong":                                                                      "Qualcosa è andato storto",
	"An unexpected problem occurred. Please try again.":                                         "Si è verificato un problema imprevisto. Riprova.",
	"Assistant turned off":                                                                      "Assistente disattivato",
	"Enable the on-device model in Settings to use this feature.":                               "Attiva il modello sul dispositivo nelle Impostazioni per usare questa funzione.",
	"Not available on this device":                                                              "Non disponibile su questo dispositivo",
	"This device cannot run the on-device model. Check Settings for supported options.":         "Questo dispositivo non può eseguire il modello. Controlla le Impostazioni per le opzioni supportate.",
	"Model not ready":                                                                           "Modello non pronto",
	"The on-device model is still downloading or loading. Try again in a few minutes.":          "Il modello è ancora in download o in caricamento. Riprova tra qualche minuto.",
	"Assistant unavailable":                                                                     "Assistente non disponibile",
	"The on-device model is unavailable right now.":                                             "Il modello sul dispositivo non è disponibile al momento.",
}

func init() {
	for key, msg := range italian {
		if err := message.SetString(language.Italian, key, msg); err != nil {
			panic(err)
		}
	}
}
