package service

import (
	"testing"

	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/quote/entity"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{entity.QuotationStatusDraft, entity.QuotationStatusSubmitted, true},
		{entity.QuotationStatusDraft, entity.QuotationStatusApproved, false},
		{entity.QuotationStatusDraft, entity.QuotationStatusNegotiating, false},
		{entity.QuotationStatusSubmitted, entity.QuotationStatusUnderReview, true},
		{entity.QuotationStatusSubmitted, entity.QuotationStatusApproved, true},
		{entity.QuotationStatusSubmitted, entity.QuotationStatusRejected, true},
		{entity.QuotationStatusSubmitted, entity.QuotationStatusRevisionRequested, true},
		{entity.QuotationStatusSubmitted, entity.QuotationStatusNegotiating, true},
		{entity.QuotationStatusSubmitted, entity.QuotationStatusDraft, false},
		{entity.QuotationStatusUnderReview, entity.QuotationStatusUnderReview, true},
		{entity.QuotationStatusUnderReview, entity.QuotationStatusApproved, true},
		{entity.QuotationStatusRevisionRequested, entity.QuotationStatusSubmitted, true},
		{entity.QuotationStatusRevisionRequested, entity.QuotationStatusNegotiating, true},
		{entity.QuotationStatusRevisionRequested, entity.QuotationStatusApproved, false},
		{entity.QuotationStatusNegotiating, entity.QuotationStatusSubmitted, true},
		{entity.QuotationStatusNegotiating, entity.QuotationStatusNegotiating, true},
		{entity.QuotationStatusNegotiating, entity.QuotationStatusApproved, false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTerminalStatesHaveNoOutgoing(t *testing.T) {
	all := []string{
		entity.QuotationStatusDraft,
		entity.QuotationStatusSubmitted,
		entity.QuotationStatusUnderReview,
		entity.QuotationStatusApproved,
		entity.QuotationStatusRejected,
		entity.QuotationStatusRevisionRequested,
		entity.QuotationStatusNegotiating,
	}
	for _, terminal := range []string{entity.QuotationStatusApproved, entity.QuotationStatusRejected} {
		for _, to := range all {
			if CanTransition(terminal, to) {
				t.Errorf("terminal state %s should not transition to %s", terminal, to)
			}
		}
	}
}

func TestCheckTransitionErrorKind(t *testing.T) {
	err := checkTransition(entity.QuotationStatusApproved, entity.QuotationStatusSubmitted)
	if err == nil {
		t.Fatal("expected error for transition out of terminal state")
	}
	if ErrKind(err) != KindInvalidTransition {
		t.Errorf("expected kind %s, got %s", KindInvalidTransition, ErrKind(err))
	}
}
