package services

import (
	"context"
	"testing"
)

func TestNotificationService_ChannelsAreIndependent(t *testing.T) {
	db := newServiceDB(t)
	svc := &NotificationService{DB: db}
	ctx := context.Background()

	// Same key written to both channels; neither feed may see the other's row.
	if err := svc.Append(ctx, ChannelPatient, "key-1", "patient message"); err != nil {
		t.Fatalf("append patient: %v", err)
	}
	if err := svc.Append(ctx, ChannelAdmin, "key-1", "admin message"); err != nil {
		t.Fatalf("append admin: %v", err)
	}

	pat, err := svc.ListForAppointment(ctx, "key-1")
	if err != nil || len(pat) != 1 || pat[0].Message != "patient message" {
		t.Fatalf("patient feed = %#v, %v", pat, err)
	}
	adm, err := svc.ListForPatientAdmin(ctx, "key-1")
	if err != nil || len(adm) != 1 || adm[0].Message != "admin message" {
		t.Fatalf("admin feed = %#v, %v", adm, err)
	}
}

func TestNotificationService_OrderAndEmptyFeed(t *testing.T) {
	db := newServiceDB(t)
	svc := &NotificationService{DB: db}
	ctx := context.Background()

	for _, m := range []string{"first", "second", "third"} {
		if err := svc.Append(ctx, ChannelPatient, "tok", m); err != nil {
			t.Fatalf("append %q: %v", m, err)
		}
	}
	out, err := svc.ListForAppointment(ctx, "tok")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 3 || out[0].Message != "first" || out[2].Message != "third" {
		t.Fatalf("feed out of order: %#v", out)
	}

	empty, err := svc.ListForAppointment(ctx, "unknown")
	if err != nil {
		t.Fatalf("empty feed must not error: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty feed, got %#v", empty)
	}
}
