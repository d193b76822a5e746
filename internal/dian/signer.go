package dian

// Signer applies the XAdES-BES signature DIAN requires on production
// documents.
type Signer interface {
	Sign(document []byte) ([]byte, error)
}

// UnsignedSigner passes documents through untouched. It stands in
// until a certificate-backed XAdES-BES implementation is wired; the
// generated documents are valid for the habilitación test set but not
// for production submission.
type UnsignedSigner struct{}

// NewUnsignedSigner constructs the pass-through signer.
func NewUnsignedSigner() *UnsignedSigner {
	return &UnsignedSigner{}
}

// Sign returns the document unchanged.
func (s *UnsignedSigner) Sign(document []byte) ([]byte, error) {
	return document, nil
}
