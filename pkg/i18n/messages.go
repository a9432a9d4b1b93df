package i18n

// Message keys.
const (
	ErrCallableNotFound = "errors.callable.notfound"
	ErrMethodNotFound   = "errors.method.notfound"
	ErrInvalidArgs      = "errors.args.invalid"
	ErrResponseData     = "errors.response.data.invalid"
	ErrUploadDisabled   = "errors.upload.disabled"
	ErrUploadDir        = "errors.upload.dir"
	ErrUploadType       = "errors.upload.type"
	ErrUploadExtension  = "errors.upload.extension"
	ErrUploadMaxSize    = "errors.upload.max-size"
	ErrUploadMinSize    = "errors.upload.min-size"
	ErrUploadToken      = "errors.upload.token"
	ErrUploadCopy       = "errors.upload.copy"
	ErrInternal         = "errors.internal"
	ErrNotHandled       = "errors.request.unhandled"
)

var english = map[string]string{
	ErrCallableNotFound: "No callable named {name} is registered.",
	ErrMethodNotFound:   "The method {method} of {class} is not available.",
	ErrInvalidArgs:      "The call arguments could not be read.",
	ErrResponseData:     "Invalid data of type {type} cannot be appended to a response.",
	ErrUploadDisabled:   "File uploads are disabled.",
	ErrUploadDir:        "The upload directory {dir} is not writable.",
	ErrUploadType:       "The file {name} has a forbidden type: {type}.",
	ErrUploadExtension:  "The file {name} has a forbidden extension: {extension}.",
	ErrUploadMaxSize:    "The file {name} is larger than {size} KB.",
	ErrUploadMinSize:    "The file {name} is smaller than {size} KB.",
	ErrUploadToken:      "The upload token is invalid or expired.",
	ErrUploadCopy:       "The file {name} could not be saved.",
	ErrInternal:         "An internal error occurred.",
	ErrNotHandled:       "No plugin can process this request.",
}

var french = map[string]string{
	ErrCallableNotFound: "Aucune fonction nommée {name} n'est enregistrée.",
	ErrMethodNotFound:   "La méthode {method} de {class} n'est pas disponible.",
	ErrInvalidArgs:      "Les arguments de l'appel sont illisibles.",
	ErrResponseData:     "Des données de type {type} ne peuvent pas être ajoutées à une réponse.",
	ErrUploadDisabled:   "Le téléversement de fichiers est désactivé.",
	ErrUploadDir:        "Le répertoire {dir} n'est pas accessible en écriture.",
	ErrUploadType:       "Le fichier {name} a un type interdit : {type}.",
	ErrUploadExtension:  "Le fichier {name} a une extension interdite : {extension}.",
	ErrUploadMaxSize:    "Le fichier {name} dépasse {size} Ko.",
	ErrUploadMinSize:    "Le fichier {name} fait moins de {size} Ko.",
	ErrUploadToken:      "Le jeton de téléversement est invalide ou expiré.",
	ErrUploadCopy:       "Le fichier {name} n'a pas pu être enregistré.",
	ErrInternal:         "Une erreur interne est survenue.",
	ErrNotHandled:       "Aucun plugin ne peut traiter cette requête.",
}
