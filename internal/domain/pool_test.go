package domain_test

import (
	"testing"

	"github.com/evetabi/roulette/internal/domain"
)

func TestPool_DepositWithdraw(t *testing.T) {
	p := domain.NewPool(100)
	p.Deposit(50)
	if got := p.Value(); got != 150 {
		t.Errorf("Value() = %d, want 150", got)
	}
	if err := p.Withdraw(150); err != nil {
		t.Errorf("Withdraw(150) unexpected error: %v", err)
	}
	if got := p.Value(); got != 0 {
		t.Errorf("Value() after full withdraw = %d, want 0", got)
	}
}

func TestPool_WithdrawSaturatesAtZero(t *testing.T) {
	p := domain.NewPool(10)
	if err := p.Withdraw(11); err == nil {
		t.Fatal("Withdraw(11) on a pool of 10 should fail")
	}
	if got := p.Value(); got != 10 {
		t.Errorf("Value() after failed withdraw = %d, want unchanged 10", got)
	}
}

func TestPool_NeverNegative(t *testing.T) {
	p := domain.NewPool(0)
	if err := p.Withdraw(1); err == nil {
		t.Fatal("Withdraw(1) on an empty pool should fail")
	}
	if got := p.Value(); got != 0 {
		t.Errorf("Value() = %d, want 0", got)
	}
}
