// Package memory implements the gateway contracts against an in-memory
// ledger: token ownership with operator approvals, currency and wrapped
// balances, and per-contract royalty configuration. It backs the test suite
// and local development.
package memory

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/R3E-Network/auction_house/internal/app/domain/auction"
	"github.com/R3E-Network/auction_house/internal/app/gateway"
)

// Share is one legacy-split share: Recipient receives Pct percent of the
// forwarded proceeds.
type Share struct {
	Recipient string
	Pct       uint8
}

// ContractConfig declares how a token contract behaves on the ledger.
type ContractConfig struct {
	// Supported marks the contract as exposing the ownership interface.
	Supported bool

	// RoyaltyAware contracts answer RoyaltyInfo with RoyaltyRecipient and
	// salePrice * RoyaltyBps / 10000.
	RoyaltyAware     bool
	RoyaltyRecipient string
	RoyaltyBps       int64

	// LegacySplit contracts distribute proceeds through Shares. Probed after
	// RoyaltyAware.
	LegacySplit bool
	Shares      []Share
}

// Ledger is a thread-safe in-memory implementation of AssetGateway,
// CurrencyGateway, WrappedGateway, and RoyaltyResolver. The custodian
// account holds everything the engine has in escrow.
type Ledger struct {
	mu        sync.Mutex
	custodian string

	contracts map[string]ContractConfig
	owners    map[string]map[string]string          // contract -> tokenID -> owner
	operators map[string]map[string]map[string]bool // contract -> owner -> operator

	balances map[string]map[string]*big.Int // currency -> holder -> balance
	wrapped  map[string]map[string]*big.Int

	rejectPay     map[string]bool
	rejectReceive map[string]bool // token transfers

	payHook     func(currency, to string, amount *big.Int)
	releaseHook func(contract, tokenID, to string)
}

var _ gateway.AssetGateway = (*Ledger)(nil)
var _ gateway.CurrencyGateway = (*Ledger)(nil)
var _ gateway.WrappedGateway = (*Ledger)(nil)
var _ gateway.RoyaltyResolver = (*Ledger)(nil)

// NewLedger creates an empty ledger with the given escrow custodian account.
func NewLedger(custodian string) *Ledger {
	return &Ledger{
		custodian:     custodian,
		contracts:     make(map[string]ContractConfig),
		owners:        make(map[string]map[string]string),
		operators:     make(map[string]map[string]map[string]bool),
		balances:      make(map[string]map[string]*big.Int),
		wrapped:       make(map[string]map[string]*big.Int),
		rejectPay:     make(map[string]bool),
		rejectReceive: make(map[string]bool),
	}
}

// Custodian returns the escrow account address.
func (l *Ledger) Custodian() string { return l.custodian }

// RegisterContract configures a token contract.
func (l *Ledger) RegisterContract(contract string, cfg ContractConfig) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.contracts[contract] = cfg
}

// Mint assigns a token to an owner.
func (l *Ledger) Mint(contract, tokenID, owner string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.owners[contract] == nil {
		l.owners[contract] = make(map[string]string)
	}
	l.owners[contract][tokenID] = owner
}

// ApproveOperator lets operator move owner's tokens on a contract.
func (l *Ledger) ApproveOperator(contract, owner, operator string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.operators[contract] == nil {
		l.operators[contract] = make(map[string]map[string]bool)
	}
	if l.operators[contract][owner] == nil {
		l.operators[contract][owner] = make(map[string]bool)
	}
	l.operators[contract][owner][operator] = true
}

// Fund credits a holder's spendable balance in a currency.
func (l *Ledger) Fund(currency, holder string, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.creditLocked(l.balances, currency, holder, amount)
}

// Balance returns a holder's spendable balance in a currency.
func (l *Ledger) Balance(currency, holder string) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return auction.CopyAmount(l.balances[currency][holder])
}

// WrappedBalance returns a holder's wrapped (fallback rail) balance.
func (l *Ledger) WrappedBalance(currency, holder string) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return auction.CopyAmount(l.wrapped[currency][holder])
}

// RejectPayments makes direct payments to addr fail, forcing the wrapped
// fallback. Token releases are unaffected.
func (l *Ledger) RejectPayments(addr string, reject bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rejectPay[addr] = reject
}

// RejectTokenTransfers makes token releases to addr fail.
func (l *Ledger) RejectTokenTransfers(addr string, reject bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rejectReceive[addr] = reject
}

// SetPayHook installs a callback invoked after every successful Pay, outside
// the ledger lock. Used to simulate reentrant callers.
func (l *Ledger) SetPayHook(hook func(currency, to string, amount *big.Int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.payHook = hook
}

// SetReleaseHook installs a callback invoked after every successful Release,
// outside the ledger lock.
func (l *Ledger) SetReleaseHook(hook func(contract, tokenID, to string)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.releaseHook = hook
}

// --- AssetGateway -----------------------------------------------------------

func (l *Ledger) Supports(_ context.Context, contract string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.contracts[contract].Supported
}

func (l *Ledger) OwnerOf(_ context.Context, contract, tokenID string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	owner, ok := l.owners[contract][tokenID]
	if !ok {
		return "", fmt.Errorf("token %s/%s does not exist", contract, tokenID)
	}
	return owner, nil
}

func (l *Ledger) IsApprovedFor(_ context.Context, contract, owner, operator string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.operators[contract][owner][operator], nil
}

func (l *Ledger) Custody(_ context.Context, contract, tokenID, from string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	owner, ok := l.owners[contract][tokenID]
	if !ok {
		return fmt.Errorf("token %s/%s does not exist", contract, tokenID)
	}
	if owner != from {
		return fmt.Errorf("%w: %s does not hold %s/%s", gateway.ErrUnauthorized, from, contract, tokenID)
	}
	l.owners[contract][tokenID] = l.custodian
	return nil
}

func (l *Ledger) Release(_ context.Context, contract, tokenID, to string) error {
	l.mu.Lock()
	owner, ok := l.owners[contract][tokenID]
	if !ok {
		l.mu.Unlock()
		return fmt.Errorf("token %s/%s does not exist", contract, tokenID)
	}
	if owner != l.custodian {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s/%s not in custody", gateway.ErrUnauthorized, contract, tokenID)
	}
	if l.rejectReceive[to] {
		l.mu.Unlock()
		return fmt.Errorf("recipient %s cannot receive %s/%s", to, contract, tokenID)
	}
	l.owners[contract][tokenID] = to
	hook := l.releaseHook
	l.mu.Unlock()

	if hook != nil {
		hook(contract, tokenID, to)
	}
	return nil
}

// --- CurrencyGateway --------------------------------------------------------

func (l *Ledger) Collect(_ context.Context, currency, payer string, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.debitLocked(l.balances, currency, payer, amount); err != nil {
		return err
	}
	l.creditLocked(l.balances, currency, l.custodian, amount)
	return nil
}

func (l *Ledger) Pay(_ context.Context, currency, to string, amount *big.Int) error {
	l.mu.Lock()
	if l.rejectPay[to] {
		l.mu.Unlock()
		return fmt.Errorf("recipient %s rejected payment", to)
	}
	if err := l.debitLocked(l.balances, currency, l.custodian, amount); err != nil {
		l.mu.Unlock()
		return err
	}
	l.creditLocked(l.balances, currency, to, amount)
	hook := l.payHook
	l.mu.Unlock()

	// Hook runs outside the lock so a reentrant caller can re-enter the
	// engine the way an external transfer callback would.
	if hook != nil {
		hook(currency, to, amount)
	}
	return nil
}

// --- WrappedGateway ---------------------------------------------------------

// Credit moves escrowed value onto the wrapped rail for the recipient. The
// wrapped rail accepts any recipient.
func (l *Ledger) Credit(_ context.Context, currency, to string, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.debitLocked(l.balances, currency, l.custodian, amount); err != nil {
		return err
	}
	l.creditLocked(l.wrapped, currency, to, amount)
	return nil
}

// --- RoyaltyResolver --------------------------------------------------------

func (l *Ledger) Classify(_ context.Context, contract string) (auction.Capability, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cfg := l.contracts[contract]
	switch {
	case cfg.RoyaltyAware:
		return auction.CapabilityRoyaltyAware, nil
	case cfg.LegacySplit:
		return auction.CapabilityLegacySplit, nil
	default:
		return auction.CapabilityPlain, nil
	}
}

func (l *Ledger) RoyaltyInfo(_ context.Context, contract, _ string, salePrice *big.Int) (string, *big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cfg := l.contracts[contract]
	if !cfg.RoyaltyAware {
		return "", nil, fmt.Errorf("contract %s is not royalty aware", contract)
	}
	amount := new(big.Int).Mul(salePrice, big.NewInt(cfg.RoyaltyBps))
	amount.Div(amount, big.NewInt(10000))
	return cfg.RoyaltyRecipient, amount, nil
}

// ValidBid mirrors the legacy split arithmetic: an amount is settleable only
// when the per-share truncating division loses nothing, i.e. the share
// payouts sum back to the amount.
func (l *Ledger) ValidBid(_ context.Context, contract, _ string, amount *big.Int) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cfg := l.contracts[contract]
	if !cfg.LegacySplit {
		return false, fmt.Errorf("contract %s has no share split", contract)
	}
	total := new(big.Int)
	for _, share := range cfg.Shares {
		total.Add(total, shareCut(amount, share.Pct))
	}
	return total.Cmp(amount) == 0, nil
}

func (l *Ledger) PaySplit(_ context.Context, contract, _, currency string, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	cfg := l.contracts[contract]
	if !cfg.LegacySplit {
		return fmt.Errorf("contract %s has no share split", contract)
	}
	for _, share := range cfg.Shares {
		cut := shareCut(amount, share.Pct)
		if err := l.debitLocked(l.balances, currency, l.custodian, cut); err != nil {
			return err
		}
		l.creditLocked(l.balances, currency, share.Recipient, cut)
	}
	return nil
}

// --- helpers ----------------------------------------------------------------

func shareCut(amount *big.Int, pct uint8) *big.Int {
	cut := new(big.Int).Mul(amount, big.NewInt(int64(pct)))
	return cut.Div(cut, big.NewInt(100))
}

func (l *Ledger) creditLocked(book map[string]map[string]*big.Int, currency, holder string, amount *big.Int) {
	if amount == nil || amount.Sign() == 0 {
		return
	}
	if book[currency] == nil {
		book[currency] = make(map[string]*big.Int)
	}
	if book[currency][holder] == nil {
		book[currency][holder] = new(big.Int)
	}
	book[currency][holder].Add(book[currency][holder], amount)
}

func (l *Ledger) debitLocked(book map[string]map[string]*big.Int, currency, holder string, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	balance := book[currency][holder]
	if balance == nil || balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s holds %s, needs %s", gateway.ErrInsufficientFunds, holder, balance, amount)
	}
	balance.Sub(balance, amount)
	return nil
}
