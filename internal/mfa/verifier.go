package mfa

import "context"

// Verifier checks a submitted code for one method.
type Verifier interface {
	Verify(ctx context.Context, code, userID string) (bool, error)
}

// VerifierFunc adapts a function to [Verifier].
type VerifierFunc func(ctx context.Context, code, userID string) (bool, error)

func (f VerifierFunc) Verify(ctx context.Context, code, userID string) (bool, error) {
	return f(ctx, code, userID)
}

// Placeholder verifiers. They check only the shape of the code and are
// meant to be replaced by provider integrations.
var (
	DigitsVerifier    Verifier = VerifierFunc(verifySixDigits)
	EmailVerifier     Verifier = VerifierFunc(verifyEmailCode)
	BiometricVerifier Verifier = VerifierFunc(verifyAssertion)
)

// DefaultVerifiers returns the placeholder verifier of every built-in method.
func DefaultVerifiers() map[Method]Verifier {
	return map[Method]Verifier{
		MethodTOTP:      DigitsVerifier,
		MethodSMS:       DigitsVerifier,
		MethodEmail:     EmailVerifier,
		MethodBiometric: BiometricVerifier,
	}
}

func verifySixDigits(_ context.Context, code, _ string) (bool, error) {
	if len(code) != 6 {
		return false, nil
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false, nil
		}
	}
	return true, nil
}

func verifyEmailCode(_ context.Context, code, _ string) (bool, error) {
	return len(code) == 8, nil
}

func verifyAssertion(_ context.Context, code, _ string) (bool, error) {
	return code != "", nil
}
