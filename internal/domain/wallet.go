package domain

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// Wallet holds a player's off-chain funding balance — the external
// collaborator the spec names as "the fungible-token implementation itself
// (only its balance primitives are consumed)". Stakes are debited from here
// before entering a round's native-uint64 Pool; winnings are credited back
// here. Decimal precision is used at this boundary (human deposits/
// withdrawals, admin reporting) even though the round's internal accounting
// is integer token units, matching the spec's required integer-division
// payout semantics.
type Wallet struct {
	Player    string          `json:"player"     db:"player"`
	Balance   decimal.Decimal `json:"balance"    db:"balance"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// Available returns the balance free to stake. Wallets carry no locked
// portion — a round's Pool is itself the escrow once a bet is accepted.
func (w *Wallet) Available() decimal.Decimal {
	return w.Balance
}

// TxType enumerates wallet transaction types for auditing.
type TxType string

const (
	TxDeposit  TxType = "deposit"
	TxWithdraw TxType = "withdraw"
	TxStake    TxType = "stake"
	TxPayout   TxType = "payout"
)

// Transaction is an immutable audit record for every wallet balance change.
type Transaction struct {
	ID            string          `json:"id"             db:"id"`
	Player        string          `json:"player"         db:"player"`
	Type          TxType          `json:"type"           db:"type"`
	Amount        decimal.Decimal `json:"amount"         db:"amount"`
	BalanceBefore decimal.Decimal `json:"balance_before" db:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"  db:"balance_after"`
	RefRound      *uint64         `json:"ref_round"      db:"ref_round"`
	Description   string          `json:"description"    db:"description"`
	CreatedAt     time.Time       `json:"created_at"     db:"created_at"`
}

// TokenAmount converts a wallet-boundary decimal amount to the integer token
// units the round engine accounts in. The wallet and the round pool share one
// unscaled unit, so this is truncation toward zero, never rounding up.
func TokenAmount(d decimal.Decimal) uint64 {
	if d.Sign() <= 0 {
		return 0
	}
	return d.BigInt().Uint64()
}

// DecimalAmount converts integer token units back to the wallet's decimal
// representation for reporting and transaction logging.
func DecimalAmount(units uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(units), 0)
}
