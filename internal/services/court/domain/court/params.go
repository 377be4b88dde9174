package court

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Params are the court's economic and timing parameters.
type Params struct {
	EscrowAccount           string
	FilingFee               uint64
	JurorStake              uint64
	JurySize                int
	AppealJurySize          int
	CommitDuration          time.Duration
	RevealDuration          time.Duration
	AppealDuration          time.Duration
	PenaltyRate             uint64
	AppealDepositMultiplier uint64
}

// DefaultParams returns the parameters the court ships with.
func DefaultParams() Params {
	return Params{
		EscrowAccount:           "court-escrow",
		FilingFee:               100,
		JurorStake:              500,
		JurySize:                3,
		AppealJurySize:          5,
		CommitDuration:          5 * time.Minute,
		RevealDuration:          5 * time.Minute,
		AppealDuration:          10 * time.Minute,
		PenaltyRate:             50,
		AppealDepositMultiplier: 5,
	}
}

// AppealDeposit returns FilingFee * AppealDepositMultiplier.
func (p Params) AppealDeposit() uint64 {
	return p.FilingFee * p.AppealDepositMultiplier
}

// Validate reports every invalid parameter.
func (p Params) Validate() error {
	var errs []error
	if strings.TrimSpace(p.EscrowAccount) == "" {
		errs = append(errs, errors.New("escrow account is required"))
	}
	if p.FilingFee == 0 {
		errs = append(errs, errors.New("filing fee must be positive"))
	}
	if p.JurorStake == 0 {
		errs = append(errs, errors.New("juror stake must be positive"))
	}
	if p.JurySize < 1 {
		errs = append(errs, fmt.Errorf("jury size must be at least 1, got %d", p.JurySize))
	}
	if p.AppealJurySize < p.JurySize {
		errs = append(errs, fmt.Errorf("appeal jury size %d must be at least jury size %d", p.AppealJurySize, p.JurySize))
	}
	if p.PenaltyRate > 100 {
		errs = append(errs, fmt.Errorf("penalty rate must be at most 100, got %d", p.PenaltyRate))
	}
	if p.AppealDepositMultiplier == 0 {
		errs = append(errs, errors.New("appeal deposit multiplier must be positive"))
	} else if p.FilingFee > 0 && p.AppealDeposit()/p.AppealDepositMultiplier != p.FilingFee {
		errs = append(errs, errors.New("appeal deposit overflows"))
	}
	if p.CommitDuration <= 0 || p.RevealDuration <= 0 || p.AppealDuration <= 0 {
		errs = append(errs, errors.New("commit, reveal and appeal durations must be positive"))
	}
	return errors.Join(errs...)
}
