package store

import (
	"testing"
)

func TestCreateFolderCollision(t *testing.T) {
	mb := testMailboxStore(t)

	folder, err := mb.CreateFolder("test-folder", "Test Folder")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if folder == nil {
		t.Fatal("first create returned nil")
	}

	again, err := mb.CreateFolder("test-folder", "Test Folder")
	if err != nil {
		t.Fatalf("duplicate create: %v", err)
	}
	if again != nil {
		t.Error("duplicate create should return nil")
	}

	// Name collision alone also counts.
	byName, err := mb.CreateFolder("other-id", "Test Folder")
	if err != nil {
		t.Fatalf("name collision create: %v", err)
	}
	if byName != nil {
		t.Error("name collision create should return nil")
	}
}

func TestDeleteCustomFolderMovesEmailsToTrash(t *testing.T) {
	mb := testMailboxStore(t)
	if f, err := mb.CreateFolder("projects", "Projects"); err != nil || f == nil {
		t.Fatalf("create: %v, %v", f, err)
	}
	email := mustCreateEmail(t, mb, "projects", EmailFields{Subject: "kept"}, nil)

	deleted, err := mb.DeleteFolder("projects")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !deleted {
		t.Fatal("custom folder not deleted")
	}

	if f, err := mb.GetFolder("projects"); err != nil || f != nil {
		t.Errorf("folder survived delete: %v, %v", f, err)
	}
	trash, err := mb.ListEmails(ListParams{Folder: "trash"})
	if err != nil {
		t.Fatalf("list trash: %v", err)
	}
	if len(trash) != 1 || trash[0].ID != email.ID {
		t.Errorf("orphaned email not moved to trash: %+v", trash)
	}
}

func TestUpdateFolder(t *testing.T) {
	mb := testMailboxStore(t)
	if f, err := mb.CreateFolder("work", "Work"); err != nil || f == nil {
		t.Fatalf("create: %v, %v", f, err)
	}

	renamed, err := mb.UpdateFolder("work", "Work Stuff")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if renamed == nil || renamed.Name != "Work Stuff" {
		t.Errorf("renamed = %+v", renamed)
	}

	if f, err := mb.UpdateFolder("missing", "Whatever"); err != nil || f != nil {
		t.Errorf("rename missing: %v, %v; want nil, nil", f, err)
	}

	if _, err := mb.UpdateFolder("work", "Inbox"); err != ErrConflict {
		t.Errorf("rename onto taken name: err = %v, want ErrConflict", err)
	}
}
