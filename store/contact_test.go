package store

import (
	"testing"
)

func TestContactCRUD(t *testing.T) {
	mb := testMailboxStore(t)

	a, err := mb.CreateContact("Alice", "alice@x.com")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.ID == 0 {
		t.Error("contact id not assigned")
	}
	b, err := mb.CreateContact("", "bob@x.com")
	if err != nil {
		t.Fatalf("create without name: %v", err)
	}
	if b.ID <= a.ID {
		t.Errorf("ids not increasing: %d then %d", a.ID, b.ID)
	}

	// Duplicate email addresses are allowed.
	if _, err := mb.CreateContact("Alice Again", "alice@x.com"); err != nil {
		t.Fatalf("duplicate email create: %v", err)
	}

	name := "Bobby"
	updated, err := mb.UpdateContact(b.ID, &name, nil)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated == nil || updated.Name != "Bobby" || updated.Email != "bob@x.com" {
		t.Errorf("updated = %+v", updated)
	}

	if c, err := mb.UpdateContact(9999, &name, nil); err != nil || c != nil {
		t.Errorf("update missing: %v, %v; want nil, nil", c, err)
	}

	deleted, err := mb.DeleteContact(a.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !deleted {
		t.Error("existing contact not deleted")
	}
	deleted, err = mb.DeleteContact(a.ID)
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if deleted {
		t.Error("second delete reported success")
	}

	contacts, err := mb.ListContacts()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(contacts) != 2 {
		t.Errorf("contact count = %d, want 2", len(contacts))
	}
}
