package domain

// Submission é o formulário já validado: campos sem espaços nas pontas e dentro
// dos limites. Nunca é persistido.
type Submission struct {
	Name    string
	Email   string
	Subject string
	Message string
	// Honeypot é o campo "website", invisível para humanos.
	Honeypot string
}

// Nomes dos campos no JSON de entrada e nas chaves de FieldErrors.
const (
	FieldName     = "name"
	FieldEmail    = "email"
	FieldSubject  = "subject"
	FieldMessage  = "message"
	FieldHoneypot = "website"
)

// FieldErrors mapeia campo -> primeira mensagem de erro. Vazio significa válido.
type FieldErrors map[string]string

func (e FieldErrors) Valid() bool { return len(e) == 0 }
