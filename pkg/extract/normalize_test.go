package extract

import (
	"testing"
)

func TestNormalize_DropsAmbiguousAndDuplicates(t *testing.T) {
	text := "1.2.3.4:80\n203.0.113.7\n1.2.3.4:80\n5.6.7.8:1080:u:p"
	res := NormalizeText(text)

	want := "1.2.3.4:80\n5.6.7.8:1080:u:p"
	if res.Text != want {
		t.Errorf("Text = %q, want %q", res.Text, want)
	}
	if res.Kept != 2 {
		t.Errorf("Kept = %d, want 2", res.Kept)
	}
	if res.DuplicatesRemoved != 1 {
		t.Errorf("DuplicatesRemoved = %d, want 1", res.DuplicatesRemoved)
	}
	if res.AmbiguousDropped != 1 {
		t.Errorf("AmbiguousDropped = %d, want 1", res.AmbiguousDropped)
	}
}

func TestNormalize_CredentialsKeepEntriesDistinct(t *testing.T) {
	text := "1.2.3.4:80:a:b\n1.2.3.4:80:c:d\n1.2.3.4:80"
	res := NormalizeText(text)
	want := "1.2.3.4:80:a:b\n1.2.3.4:80:c:d\n1.2.3.4:80"
	if res.Text != want {
		t.Errorf("Text = %q, want %q", res.Text, want)
	}
	if res.DuplicatesRemoved != 0 {
		t.Errorf("DuplicatesRemoved = %d, want 0", res.DuplicatesRemoved)
	}
}

func TestNormalize_CanonicalizesAtStyle(t *testing.T) {
	res := NormalizeText("u:p@1.2.3.4:80")
	if res.Text != "1.2.3.4:80:u:p" {
		t.Errorf("Text = %q, want %q", res.Text, "1.2.3.4:80:u:p")
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"garbage no proxies here",
		"1.2.3.4:80\n1.2.3.4:80\nu:p@5.6.7.8:9",
		"203.0.113.7\n1.2.3.4:8080:bob:secret",
		"keep http://a:b@9.9.9.9:3128 trailing",
	}
	for _, text := range inputs {
		once := NormalizeText(text).Text
		twice := NormalizeText(once).Text
		if once != twice {
			t.Errorf("normalize not idempotent for %q: %q != %q", text, once, twice)
		}
	}
}
