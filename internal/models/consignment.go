package models

import "time"

// Consignment is a stored consignment record keyed by blinded UTXO.
// The sha256 digest is the content-derived blob name; it never changes
// after the record is created.
type Consignment struct {
	BlindedUTXO string     `json:"blinded_utxo"`
	SHA256      string     `json:"sha256"`
	SizeBytes   int64      `json:"size_bytes"`
	Ack         *bool      `json:"ack"`
	CreatedAt   time.Time  `json:"created_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

// Responded reports whether the one-shot acknowledgment has been set.
func (c *Consignment) Responded() bool {
	return c != nil && c.Ack != nil
}

// Acked reports whether the acknowledgment was set to true.
func (c *Consignment) Acked() bool {
	return c != nil && c.Ack != nil && *c.Ack
}

// Nacked reports whether the acknowledgment was set to false.
func (c *Consignment) Nacked() bool {
	return c != nil && c.Ack != nil && !*c.Ack
}
