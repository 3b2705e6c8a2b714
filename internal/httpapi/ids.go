package httpapi

import (
	"encoding/hex"
	"fmt"

	"github.com/ledgermint/lendingcore/native/lending"
)

func parseID(field, hexValue string) (lending.ID, error) {
	raw, err := hex.DecodeString(hexValue)
	if err != nil {
		return lending.ID{}, fmt.Errorf("%s: invalid hex: %w", field, err)
	}
	id, err := lending.IDFromBytes(raw)
	if err != nil {
		return lending.ID{}, fmt.Errorf("%s: %w", field, err)
	}
	return id, nil
}
