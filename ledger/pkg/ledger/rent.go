package ledger

// accountStorageOverhead is charged on top of the data length of every account.
const accountStorageOverhead = 128

// Rent prices account allocation. A record is rent-exempt once it holds
// MinimumBalance(len(data)) lamports.
type Rent struct {
	LamportsPerByteYear uint64
	ExemptionThreshold  uint64
}

// DefaultRent matches the mainnet rent parameters.
func DefaultRent() Rent {
	return Rent{
		LamportsPerByteYear: 3480,
		ExemptionThreshold:  2,
	}
}

// MinimumBalance is the allocation cost of an account holding dataLen bytes.
func (r Rent) MinimumBalance(dataLen int) uint64 {
	if r.LamportsPerByteYear == 0 {
		return 0
	}
	return (accountStorageOverhead + uint64(dataLen)) * r.LamportsPerByteYear * r.ExemptionThreshold
}
