package types

import (
	"encoding/json"
	"testing"
)

func TestNewOrderListNeverNil(t *testing.T) {
	list := NewOrderList[int](nil)
	raw, err := json.Marshal(list)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"orders":[],"count":0}` {
		t.Fatalf("unexpected json %s", raw)
	}
}

func TestErrorEnvelopeShape(t *testing.T) {
	raw, _ := json.Marshal(ErrorEnvelope{Error: "sold out", Code: "OUT_OF_STOCK"})
	if string(raw) != `{"success":false,"error":"sold out","code":"OUT_OF_STOCK"}` {
		t.Fatalf("unexpected json %s", raw)
	}
}
