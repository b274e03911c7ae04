package models

// Deposit is the journal record of an outbound transfer initiated on this
// chain. Amounts are decimal strings in token base units.
type Deposit struct {
	ID        int64  `db:"id"`
	Nonce     int64  `db:"nonce"`
	L1Token   string `db:"l1_token"`
	L2Token   string `db:"l2_token"`
	Sender    string `db:"sender"`
	Recipient string `db:"recipient"`
	Amount    string `db:"amount"`
	ExtraData []byte `db:"extra_data"`
}

// Withdrawal mirrors the in-memory status ledger for inbound transfers: a row
// is inserted at PENDING when the counterpart's notification is delivered and
// updated to DONE when the attested mint is claimed. Rows are never deleted.
type Withdrawal struct {
	ID           int64   `db:"id"`
	Nonce        int64   `db:"nonce"`
	Status       string  `db:"status"`
	Sender       string  `db:"sender"`
	Recipient    string  `db:"recipient"`
	Amount       string  `db:"amount"`
	ErrorMessage *string `db:"error_message"`
	RetryCount   int     `db:"retry_count"`
}
