package domain

// OrderEntry is one accepted order in the append-only order log.
// Rejected orders never produce an entry.
type OrderEntry struct {
	Seq      uint64    `json:"seq"`
	Account  AccountID `json:"account"`
	Quantity uint32    `json:"quantity"`
	NewTotal uint32    `json:"new_total"`
	At       Timestamp `json:"at"`
}
