package models

import "testing"

func TestCanTransitReservation(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{ReservationPending, ReservationAccepted, true},
		{ReservationPending, ReservationApproved, true},
		{ReservationPending, ReservationRejected, true},
		{ReservationAccepted, ReservationApproved, true},
		{ReservationAccepted, ReservationRejected, true},
		{ReservationAccepted, ReservationPending, false},
		{ReservationApproved, ReservationRejected, false},
		{ReservationApproved, ReservationPending, false},
		{ReservationRejected, ReservationApproved, false},
		{ReservationRejected, ReservationAccepted, false},
		// 重送同一狀態一律允許（上層視為 no-op）
		{ReservationPending, ReservationPending, true},
		{ReservationApproved, ReservationApproved, true},
		{ReservationRejected, ReservationRejected, true},
	}

	for _, tc := range cases {
		if got := CanTransitReservation(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransitReservation(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestDamageEventBlocksVehicle(t *testing.T) {
	blocking := []string{DamageReported, DamageInRepair}
	for _, status := range blocking {
		d := DamageEvent{RepairStatus: status}
		if !d.BlocksVehicle() {
			t.Errorf("expected %s to block the vehicle", status)
		}
	}
	clear := []string{DamageQuoting, DamageClosed}
	for _, status := range clear {
		d := DamageEvent{RepairStatus: status}
		if d.BlocksVehicle() {
			t.Errorf("expected %s not to block the vehicle", status)
		}
	}
}
