package mill

import (
	"encoding/json"
	"fmt"
)

func marshalReasonMap(b Breakdown) ([]byte, error) {
	m := make(map[Reason]float64, NumReasons)
	for i, r := range Reasons {
		m[r] = b[i]
	}
	return json.Marshal(m)
}

func unmarshalReasonMap(data []byte, b *Breakdown) error {
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	var out Breakdown
	for k, v := range m {
		i := Reason(k).Index()
		if i < 0 {
			return fmt.Errorf("%w: %q", ErrUnknownReason, k)
		}
		out[i] = v
	}
	*b = out
	return nil
}
