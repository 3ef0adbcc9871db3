package conversion

import (
	"github.com/amirasaad/fxconvert/pkg/currency"
)

// State is what a view renders. Result nil means no value, which is not the
// same as a converted value of zero. Error is empty when there is none.
type State struct {
	Currencies currency.Table `json:"currencies"`
	IsLoading  bool           `json:"is_loading"`
	Result     *float64       `json:"result"`
	Error      string         `json:"error,omitempty"`
}

// HasResult reports whether a converted value is present.
func (s State) HasResult() bool {
	return s.Result != nil
}

// HasError reports whether the last settled operation failed.
func (s State) HasError() bool {
	return s.Error != ""
}

func (s State) clone() State {
	s.Currencies = s.Currencies.Clone()
	if s.Result != nil {
		v := *s.Result
		s.Result = &v
	}
	return s
}
