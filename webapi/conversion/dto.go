package conversion

import (
	"github.com/amirasaad/fxconvert/pkg/currency"
	convsvc "github.com/amirasaad/fxconvert/pkg/service/conversion"
)

// ConvertRequest represents the request body for a conversion.
type ConvertRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	From   string  `json:"from" validate:"required,len=3,uppercase"`
	To     string  `json:"to" validate:"required,len=3,uppercase"`
}

// StateResponse is the wire form of the converter state. Currencies are
// listed in display order.
type StateResponse struct {
	Currencies []currency.Entry `json:"currencies"`
	IsLoading  bool             `json:"is_loading"`
	Result     *float64         `json:"result"`
	Display    string           `json:"display,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// ToStateResponse converts a state snapshot. The "to" code, when known, is
// used for the formatted Display value.
func ToStateResponse(st convsvc.State, limit int, to string) StateResponse {
	resp := StateResponse{
		Currencies: st.Currencies.Entries(limit),
		IsLoading:  st.IsLoading,
		Result:     st.Result,
		Error:      st.Error,
	}
	if st.Result != nil && to != "" {
		resp.Display = currency.Display(*st.Result, to)
	}
	return resp
}
