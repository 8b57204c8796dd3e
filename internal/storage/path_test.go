package storage

import "testing"

func TestAttachmentPath(t *testing.T) {
	if got := AttachmentPath("u1", "t1", "f1", "cat.png"); got != "users/u1/threads/t1/f1_cat.png" {
		t.Fatalf("unexpected thread path %q", got)
	}
	if got := AttachmentPath("u1", "", "f1", "cat.png"); got != "users/u1/files/f1_cat.png" {
		t.Fatalf("unexpected file path %q", got)
	}
	if got := AttachmentPath("u1", "", "f1", "../../etc/passwd"); got != "users/u1/files/f1_passwd" {
		t.Fatalf("expected sanitized name, got %q", got)
	}
}

func TestOwnedBy(t *testing.T) {
	cases := []struct {
		path  string
		owner string
		want  bool
	}{
		{"users/u1/files/f1_a.png", "u1", true},
		{"users/u1/threads/t1/f1_a.png", "u1", true},
		{"users/u2/files/f1_a.png", "u1", false},
		{"users/u1/../u2/files/x", "u1", false},
		{"users/u10/files/x", "u1", false},
		{"users/u1/files/x", "", false},
	}
	for _, tc := range cases {
		if got := OwnedBy(tc.path, tc.owner); got != tc.want {
			t.Fatalf("OwnedBy(%q, %q) = %v, want %v", tc.path, tc.owner, got, tc.want)
		}
	}
}

func TestPublicURL(t *testing.T) {
	if got := PublicURL("bucket", "users/u1/files/a.png"); got != "https://storage.googleapis.com/bucket/users/u1/files/a.png" {
		t.Fatalf("unexpected url %q", got)
	}
}

func TestObjectPathFromURL(t *testing.T) {
	cases := []struct {
		url  string
		path string
		ok   bool
	}{
		{PublicURL("bucket", "users/u1/files/a.png"), "users/u1/files/a.png", true},
		{"https://storage.googleapis.com/bucket/users/u1/threads/t1/f_a%20b.png", "users/u1/threads/t1/f_a b.png", true},
		{"https://storage.googleapis.com/bucket", "", false},
		{"http://storage.googleapis.com/bucket/users/u1/a.png", "", false},
		{"https://evil.example.com/bucket/users/u1/a.png", "", false},
		{"::not a url", "", false},
	}
	for _, tc := range cases {
		got, ok := ObjectPathFromURL(tc.url)
		if got != tc.path || ok != tc.ok {
			t.Fatalf("ObjectPathFromURL(%q) = %q %v, want %q %v", tc.url, got, ok, tc.path, tc.ok)
		}
	}
}
