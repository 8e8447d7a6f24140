package application

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"contact-gateway/contact/domain"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"
)

// Bounds são os limites de tamanho (em caracteres) de cada campo.
type Bounds struct {
	NameMax    int
	EmailMax   int
	SubjectMax int
	MessageMin int
	MessageMax int
}

func DefaultBounds() Bounds {
	return Bounds{
		NameMax:    100,
		EmailMax:   254,
		SubjectMax: 150,
		MessageMin: 1,
		MessageMax: 5000,
	}
}

func (b Bounds) check() error {
	if b.NameMax < 1 || b.EmailMax < 1 || b.SubjectMax < 1 {
		return fmt.Errorf("validation: field maximums must be >= 1")
	}
	if b.MessageMin < 1 || b.MessageMax < b.MessageMin {
		return fmt.Errorf("validation: message bounds must satisfy 1 <= min (%d) <= max (%d)", b.MessageMin, b.MessageMax)
	}
	return nil
}

type rule struct {
	tag string
	msg string
}

type fieldRules struct {
	field string
	rules []rule
}

// Validator transforma o JSON solto em Submission.
//
// Para cada campo as regras rodam sempre na mesma ordem: presença, tamanho
// máximo, formato (só email), tamanho mínimo (só message). A primeira que falhar
// é a mensagem do campo. Sem I/O: seguro para uso concorrente.
type Validator struct {
	v      *validator.Validate
	fields []fieldRules
}

func NewValidator(b Bounds) (*Validator, error) {
	if err := b.check(); err != nil {
		return nil, err
	}

	required := func(label string) rule {
		return rule{tag: "required", msg: label + " is required."}
	}
	maxLen := func(label string, n int) rule {
		return rule{tag: "max=" + strconv.Itoa(n), msg: fmt.Sprintf("%s must be %d characters or fewer.", label, n)}
	}

	message := []rule{required("Message"), maxLen("Message", b.MessageMax)}
	if b.MessageMin > 1 {
		message = append(message, rule{
			tag: "min=" + strconv.Itoa(b.MessageMin),
			msg: fmt.Sprintf("Message must be at least %d characters.", b.MessageMin),
		})
	}

	return &Validator{
		v: validator.New(),
		fields: []fieldRules{
			{domain.FieldName, []rule{required("Name"), maxLen("Name", b.NameMax)}},
			{domain.FieldEmail, []rule{required("Email"), maxLen("Email", b.EmailMax), {tag: "email", msg: "Email format is invalid."}}},
			{domain.FieldSubject, []rule{required("Subject"), maxLen("Subject", b.SubjectMax)}},
			{domain.FieldMessage, message},
		},
	}, nil
}

// Validate normaliza e valida. Se FieldErrors não estiver vazio a Submission
// retornada é zero e não deve ser usada.
func (v *Validator) Validate(raw map[string]any) (domain.Submission, domain.FieldErrors) {
	values := make(map[string]string, len(v.fields))
	errs := domain.FieldErrors{}

	for _, f := range v.fields {
		val := normalize(raw[f.field])
		values[f.field] = val
		for _, r := range f.rules {
			if err := v.v.Var(val, r.tag); err != nil {
				errs[f.field] = r.msg
				break
			}
		}
	}
	if !errs.Valid() {
		return domain.Submission{}, errs
	}

	return domain.Submission{
		Name:     values[domain.FieldName],
		Email:    values[domain.FieldEmail],
		Subject:  values[domain.FieldSubject],
		Message:  values[domain.FieldMessage],
		Honeypot: honeypotValue(raw[domain.FieldHoneypot]),
	}, errs
}

// normalize converte o valor solto para texto (NFC, sem espaços nas pontas).
// Objetos, listas e null viram "".
func normalize(v any) string {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case json.Number:
		s = x.String()
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(x)
	}
	return strings.TrimSpace(norm.NFC.String(s))
}

// honeypotValue é o normalize do campo escondido, mas sem descartar valores
// compostos: objeto conta como preenchido e lista vira os itens unidos por vírgula.
func honeypotValue(v any) string {
	switch x := v.(type) {
	case map[string]any:
		return "[object]"
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = honeypotValue(e)
		}
		return strings.TrimSpace(strings.Join(parts, ","))
	}
	return normalize(v)
}
