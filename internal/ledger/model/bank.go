package model

import "leafgame/internal/ledger"

// Bank maps an item code to a non-negative quantity. A missing key reads as zero.
type Bank map[string]int

// Deal adds delta to the entry for code. A debit larger than the held quantity
// fails with *ledger.ShortfallError and leaves the bank unchanged.
func (b Bank) Deal(code string, delta int) error {
	have := b[code]
	if delta < 0 && have < -delta {
		return &ledger.ShortfallError{Code: code, Have: have}
	}
	if n := have + delta; n != 0 {
		b[code] = n
	} else {
		delete(b, code)
	}
	return nil
}

func (b Bank) Clone() Bank {
	out := make(Bank, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}
