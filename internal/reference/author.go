package reference

// Author represents a publication author.
// PubMed reports either a personal name (fore + last) or a collective
// name for consortia; collective names are stored in Last with First empty.
type Author struct {
	First string `json:"first"` // First/given name(s), or initials when PubMed has no ForeName
	Last  string `json:"last"`  // Last/family name, or collective name
}

// FullName returns "First Last", or just the last/collective name when no
// first name is known.
func (a Author) FullName() string {
	if a.First == "" {
		return a.Last
	}
	return a.First + " " + a.Last
}
