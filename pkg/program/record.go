package program

// Record is a fixed size state record persisted by a program. The persisted
// layout is the account discriminator for Name followed by Marshal output.
type Record interface {
	// Name is the record type name used to derive the discriminator
	Name() string

	// Size is the exact number of bytes Marshal produces
	Size() int

	Marshal() []byte
	Unmarshal(data []byte) error
}

// AccountSize returns the number of bytes allocated for a record account
func AccountSize(r Record) int {
	return HeaderSize + r.Size()
}

// EncodeRecord returns the persisted layout of the record
func EncodeRecord(r Record) []byte {
	discriminator := AccountDiscriminator(r.Name())

	data := make([]byte, 0, AccountSize(r))
	data = append(data, discriminator[:]...)
	data = append(data, r.Marshal()...)
	return data
}

// DecodeRecord checks the header of the persisted data and decodes the
// record fields into r
func DecodeRecord(data []byte, r Record) error {
	if len(data) < HeaderSize {
		return ErrAccountDiscriminatorMismatch
	}

	discriminator := AccountDiscriminator(r.Name())
	for i := range discriminator {
		if data[i] != discriminator[i] {
			return ErrAccountDiscriminatorMismatch
		}
	}

	if len(data) != AccountSize(r) {
		return ErrAccountDidNotDeserialize
	}
	if err := r.Unmarshal(data[HeaderSize:]); err != nil {
		return ErrAccountDidNotDeserialize
	}
	return nil
}
