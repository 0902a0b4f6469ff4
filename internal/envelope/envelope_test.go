package envelope

import (
	"errors"
	"strings"
	"testing"
)

func sampleItems() []LineItem {
	return []LineItem{
		{ItemName: "铝合金外壳", Description: "CNC加工", Quantity: 2, Unit: "pcs", UnitPrice: 100},
		{ItemName: "包装盒", Quantity: 1, Unit: "pcs", UnitPrice: 50},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	items := sampleItems()

	blob, err := Encode(items)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded, err := Decode(blob)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(decoded) != len(items) {
		t.Fatalf("expected %d items, got %d", len(items), len(decoded))
	}
	for i := range items {
		if decoded[i] != items[i] {
			t.Errorf("item %d mismatch: got %+v, want %+v", i, decoded[i], items[i])
		}
	}
}

func TestEncodeEmptyItems(t *testing.T) {
	blob, err := Encode(nil)
	if err != nil {
		t.Fatalf("Encode(nil) failed: %v", err)
	}
	decoded, err := Decode(blob)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(decoded) != 0 {
		t.Fatalf("expected empty slice, got %d items", len(decoded))
	}
}

func TestDecodeMalformed(t *testing.T) {
	cases := []string{
		"not base64 at all!!!",
		"aGVsbG8=",                 // valid base64, not JSON
		"eyJmb28iOiJiYXIifQ==",     // valid JSON object, not an array
	}
	for _, blob := range cases {
		if _, err := Decode(blob); !errors.Is(err, ErrMalformedEnvelope) {
			t.Errorf("Decode(%q): expected ErrMalformedEnvelope, got %v", blob, err)
		}
	}
}

func TestSumTotal(t *testing.T) {
	if got := SumTotal(sampleItems()); got != 250 {
		t.Fatalf("expected total 250, got %v", got)
	}
}

func TestGenerateKey(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	// 16 random bytes hex-encoded
	if len(key) != 32 {
		t.Fatalf("expected 32 hex chars, got %d", len(key))
	}

	other, _ := GenerateKey()
	if key == other {
		t.Fatal("two generated keys should not collide")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key, _ := GenerateKey()
	payload := `{"cost_breakdown":"material 60%, labor 25%","margin":0.15}`

	ciphertext := Encrypt(payload, key)
	if ciphertext == payload {
		t.Fatal("ciphertext should differ from plaintext")
	}

	plain, err := Decrypt(ciphertext, key)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if plain != payload {
		t.Fatalf("round trip mismatch: got %q", plain)
	}
}

func TestDecryptCheckedWrongKey(t *testing.T) {
	key, _ := GenerateKey()
	digest := KeyDigest(key)
	ciphertext := Encrypt("sensitive", key)

	wrong, _ := GenerateKey()
	got, err := DecryptChecked(ciphertext, wrong, digest)
	if !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
	if got != "" {
		t.Fatalf("no plaintext must be returned on key mismatch, got %q", got)
	}
}

func TestDecryptCheckedValidKey(t *testing.T) {
	key, _ := GenerateKey()
	digest := KeyDigest(key)
	ciphertext := Encrypt("sensitive payload", key)

	plain, err := DecryptChecked(ciphertext, key, digest)
	if err != nil {
		t.Fatalf("DecryptChecked failed: %v", err)
	}
	if plain != "sensitive payload" {
		t.Fatalf("unexpected plaintext %q", plain)
	}
}

// XOR is unauthenticated: a flipped ciphertext byte yields a different but
// structurally "valid" plaintext rather than an error.
func TestTamperedCiphertextDecryptsToGarbage(t *testing.T) {
	key, _ := GenerateKey()
	payload := "original payload"
	ciphertext := Encrypt(payload, key)

	tampered := []byte(ciphertext)
	if tampered[0] == 'f' {
		tampered[0] = '0'
	} else {
		tampered[0] = 'f'
	}

	plain, err := Decrypt(string(tampered), key)
	if err != nil {
		t.Fatalf("Decrypt of tampered ciphertext should still succeed, got %v", err)
	}
	if plain == payload {
		t.Fatal("tampered ciphertext must not decrypt to the original payload")
	}
}

func TestKeyDigestStable(t *testing.T) {
	key := strings.Repeat("ab", 16)
	if KeyDigest(key) != KeyDigest(key) {
		t.Fatal("digest must be deterministic")
	}
	if len(KeyDigest(key)) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(KeyDigest(key)))
	}
}
