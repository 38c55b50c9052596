// Package ledger funds genesis accounts and keeps the total token supply
// exact.
//
// All amounts are base units held in shopspring decimals with a zero
// exponent; nothing here ever goes through floating point. The ledger works
// directly on the alloc of the genesis document under construction.
package ledger

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-quorum-genesis/quorum"
	"github.com/rony4d/go-quorum-genesis/quorum/genesis"
)

var one = decimal.New(1, 0)

// Ledger applies funding passes to an alloc.
type Ledger struct {
	alloc    genesis.Alloc
	decimals int32
	log      logrus.FieldLogger
}

// New returns a ledger over alloc. Decimals only affects how amounts are
// logged in whole tokens.
func New(alloc genesis.Alloc, decimals int32, log logrus.FieldLogger) *Ledger {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Ledger{alloc: alloc, decimals: decimals, log: log}
}

// Balance returns the balance of addr, zero when unset.
func (l *Ledger) Balance(addr common.Address) decimal.Decimal {
	if acc, ok := l.alloc[addr]; ok && acc.Balance != nil {
		return acc.Balance.Decimal
	}
	return decimal.Zero
}

func (l *Ledger) set(addr common.Address, amount decimal.Decimal) {
	l.alloc.Account(addr).Balance = genesis.NewBalance(amount)
}

// FundFixed sets the balance of every address to amount. Listing an address
// twice funds it once.
func (l *Ledger) FundFixed(addrs []common.Address, amount decimal.Decimal) {
	funded := make(map[common.Address]struct{}, len(addrs))
	for _, addr := range addrs {
		if _, ok := funded[addr]; ok {
			continue
		}
		funded[addr] = struct{}{}
		l.set(addr, amount)
	}
	l.log.WithFields(logrus.Fields{
		"accounts": len(funded),
		"each":     l.tokens(amount),
	}).Debug("Funded participants with fixed amount")
}

// EscrowShare returns the per-member share of a group: the amount divided by
// the member count, rounded up.
func EscrowShare(amount decimal.Decimal, members int) decimal.Decimal {
	if members <= 0 {
		return decimal.Zero
	}
	q, r := amount.QuoRem(decimal.New(int64(members), 0), 0)
	if r.Sign() > 0 {
		q = q.Add(one)
	}
	return q
}

// FundWeightedEscrows sets every member of every group to its group share.
// Rounding up may hand out up to members-1 base units more than the group
// amount; that drift is accepted and returned in total.
func (l *Ledger) FundWeightedEscrows(groups []quorum.EscrowGroup) decimal.Decimal {
	drift := decimal.Zero
	for _, g := range groups {
		share := EscrowShare(g.Amount, len(g.Members))
		for _, member := range g.Members {
			l.set(member, share)
		}
		over := share.Mul(decimal.New(int64(len(g.Members)), 0)).Sub(g.Amount)
		drift = drift.Add(over)
		l.log.WithFields(logrus.Fields{
			"group":   g.Name,
			"members": len(g.Members),
			"share":   share.String(),
			"drift":   over.String(),
		}).Debug("Funded escrow group")
	}
	return drift
}

// PinSystemContracts sets every system contract to balance. It must run
// after every other pass that may touch those addresses.
func (l *Ledger) PinSystemContracts(addrs []common.Address, balance decimal.Decimal) {
	for _, addr := range addrs {
		l.set(addr, balance)
	}
}

// Total sums every balance in the alloc.
func (l *Ledger) Total() decimal.Decimal {
	return l.allocatedExcept(nil)
}

func (l *Ledger) allocatedExcept(skip *common.Address) decimal.Decimal {
	total := decimal.Zero
	for addr, acc := range l.alloc {
		if acc.Balance == nil || (skip != nil && addr == *skip) {
			continue
		}
		total = total.Add(acc.Balance.Decimal)
	}
	return total
}

func (l *Ledger) unallocated(supply decimal.Decimal, remainderAddr common.Address) (decimal.Decimal, decimal.Decimal, error) {
	allocated := l.allocatedExcept(&remainderAddr)
	rest := supply.Sub(allocated)
	if rest.Sign() < 0 {
		return allocated, rest, &genesis.SupplyOverflowError{Allocated: allocated, Supply: supply}
	}
	return allocated, rest, nil
}

// DistributeEvenly adds an equal share of the unallocated supply to every
// participant other than the remainder address. The share is rounded down;
// ReconcileRemainder then hands the dust to the remainder address.
func (l *Ledger) DistributeEvenly(addrs []common.Address, supply decimal.Decimal, remainderAddr common.Address) error {
	_, rest, err := l.unallocated(supply, remainderAddr)
	if err != nil {
		return err
	}
	targets := make([]common.Address, 0, len(addrs))
	seen := make(map[common.Address]struct{}, len(addrs))
	for _, addr := range addrs {
		if _, dup := seen[addr]; dup || addr == remainderAddr {
			continue
		}
		seen[addr] = struct{}{}
		targets = append(targets, addr)
	}
	if len(targets) == 0 {
		return nil
	}
	share, _ := rest.QuoRem(decimal.New(int64(len(targets)), 0), 0)
	for _, addr := range targets {
		l.set(addr, l.Balance(addr).Add(share))
	}
	l.log.WithFields(logrus.Fields{
		"participants": len(targets),
		"share":        l.tokens(share),
	}).Info("Distributed unallocated supply evenly")
	return nil
}

// ReconcileRemainder assigns whatever supply the other accounts leave over
// to the remainder address and returns that amount. If they already hold
// more than the supply a *genesis.SupplyOverflowError is returned and the
// alloc is left untouched.
func (l *Ledger) ReconcileRemainder(supply decimal.Decimal, remainderAddr common.Address) (decimal.Decimal, error) {
	allocated, rest, err := l.unallocated(supply, remainderAddr)
	if err != nil {
		return decimal.Zero, err
	}
	l.set(remainderAddr, rest)
	l.log.WithFields(logrus.Fields{
		"allocated": l.tokens(allocated),
		"remaining": l.tokens(rest),
		"remainder": remainderAddr.Hex(),
	}).Info("Reconciled supply, remaining tokens go to the remainder address")
	return rest, nil
}

// tokens renders base units as whole tokens for logs.
func (l *Ledger) tokens(amount decimal.Decimal) string {
	return amount.Shift(-l.decimals).String()
}
