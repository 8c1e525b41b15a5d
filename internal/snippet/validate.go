package snippet

import (
	stderrors "errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hpungsan/snip/internal/errors"
)

// Delimiter separates prompt texts in a composed bundle, so a single prompt
// may not contain it.
const Delimiter = ";"

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Report fields by their JSON names so messages match the wire format.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Normalize returns a copy of in with surrounding whitespace trimmed from every
// text field and blank labels removed.
func (in Input) Normalize() Input {
	out := in
	out.ID = strings.TrimSpace(in.ID)
	out.Name = strings.TrimSpace(in.Name)
	out.Category = strings.TrimSpace(in.Category)
	out.PromptText = strings.TrimSpace(in.PromptText)
	out.Labels = make([]string, 0, len(in.Labels))
	for _, l := range in.Labels {
		if t := strings.TrimSpace(l); t != "" {
			out.Labels = append(out.Labels, t)
		}
	}
	return out
}

// Validate checks required fields, the delimiter rule and the size limit.
// maxChars <= 0 disables the size check. Call Normalize first.
func (in *Input) Validate(maxChars int) error {
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !stderrors.As(err, &verrs) {
			return errors.NewInternal(err)
		}

		var missing []string
		delimiter := false
		for _, fe := range verrs {
			switch fe.Tag() {
			case "required":
				missing = append(missing, fe.Field())
			case "excludes":
				delimiter = true
			}
		}
		if len(missing) > 0 {
			return errors.NewMissingFields(missing)
		}
		if delimiter {
			return errors.NewInvalidRequest("prompt_text cannot contain semicolons (;) as this is used as a delimiter")
		}
		return errors.NewInvalidRequest(err.Error())
	}

	if maxChars > 0 {
		if n := CountChars(in.PromptText); n > maxChars {
			return errors.NewPromptTooLarge(maxChars, n)
		}
	}
	return nil
}
