// Package encryption provides the AEAD used to protect access tokens at rest.
// The keyset lives in AWS Secrets Manager, itself encrypted by a KMS key that
// is only used when the keyset is loaded.
package encryption

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/tink-crypto/tink-go-awskms/v3/integration/awskms"
	"github.com/tink-crypto/tink-go/v2/aead"
	"github.com/tink-crypto/tink-go/v2/keyset"
	"github.com/tink-crypto/tink-go/v2/tink"
)

const (
	secretsManagerScheme = "aws-secretsmanager://"
	kmsScheme            = "aws-kms://"
)

// SecretGetter is the Secrets Manager API surface used to read the keyset.
type SecretGetter interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Validate encrypts and decrypts a fixed value, so a misconfigured keyset is
// reported at startup instead of on the first cache write.
func Validate(a tink.AEAD) error {
	sample := []byte("lyrics-bridge-validation")
	ad := []byte("validation")

	ciphertext, err := a.Encrypt(sample, ad)
	if err != nil {
		return fmt.Errorf("validation encrypt failed: %w", err)
	}

	plaintext, err := a.Decrypt(ciphertext, ad)
	if err != nil {
		return fmt.Errorf("validation decrypt failed: %w", err)
	}

	if !bytes.Equal(sample, plaintext) {
		return fmt.Errorf("validation round trip returned different plaintext")
	}

	return nil
}

// LoadKMSKeyset reads the keyset named by keysetURI
// (aws-secretsmanager://<secret>) and decrypts it with the KMS key at kmsKeyURI
// (aws-kms://<key arn>). Options are passed through to the KMS client.
func LoadKMSKeyset(ctx context.Context, secrets SecretGetter, keysetURI, kmsKeyURI string, opts ...awskms.ClientOption) (tink.AEAD, error) {
	secretName, err := secretName(keysetURI)
	if err != nil {
		return nil, err
	}

	keyID, err := kmsKeyID(kmsKeyURI)
	if err != nil {
		return nil, err
	}

	envelope, err := awskms.NewAEADWithContext(ctx, keyID, opts...)
	if err != nil {
		return nil, fmt.Errorf("KMS key %q: %w", kmsKeyURI, err)
	}

	out, err := secrets.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &secretName,
	})
	if err != nil {
		return nil, fmt.Errorf("reading keyset secret %q: %w", secretName, err)
	}
	if out.SecretString == nil {
		return nil, fmt.Errorf("keyset secret %q has no string value", secretName)
	}

	handle, err := keyset.ReadWithContext(ctx, keyset.NewJSONReader(strings.NewReader(*out.SecretString)), envelope, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypting keyset: %w", err)
	}

	return primitive(handle)
}

// NewEphemeral creates an AEAD from a freshly generated keyset that is never
// persisted. Values it encrypts are unreadable after a restart.
func NewEphemeral() (tink.AEAD, error) {
	handle, err := keyset.NewHandle(aead.AES256GCMKeyTemplate())
	if err != nil {
		return nil, fmt.Errorf("generating keyset: %w", err)
	}

	return primitive(handle)
}

func primitive(handle *keyset.Handle) (tink.AEAD, error) {
	a, err := aead.New(handle)
	if err != nil {
		return nil, fmt.Errorf("creating AEAD primitive: %w", err)
	}

	if err := Validate(a); err != nil {
		return nil, err
	}

	return a, nil
}

func secretName(uri string) (string, error) {
	name, ok := strings.CutPrefix(uri, secretsManagerScheme)
	if !ok {
		return "", fmt.Errorf("keyset URI %q must start with %s", uri, secretsManagerScheme)
	}
	if name == "" {
		return "", fmt.Errorf("keyset URI %q has no secret name", uri)
	}

	return name, nil
}

// kmsKeyID strips the URI scheme; the KMS client adds it back itself.
func kmsKeyID(uri string) (string, error) {
	id, ok := strings.CutPrefix(uri, kmsScheme)
	if !ok {
		return "", fmt.Errorf("KMS key URI %q must start with %s", uri, kmsScheme)
	}
	if id == "" {
		return "", fmt.Errorf("KMS key URI %q has no key ARN", uri)
	}

	return id, nil
}
