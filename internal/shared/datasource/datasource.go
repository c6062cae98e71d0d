package datasource

// DataSource describes one provider of bibliographic, licensing, or
// classification data. The set of sources is fixed per deployment, so the
// registry is an immutable in-process table rather than a database entity.
type DataSource struct {
	Name                  string
	OffersLicenses        bool
	PrimaryIdentifierType string
}

// Well-known source names.
const (
	Gutenberg      = "Gutenberg"
	Overdrive      = "Overdrive"
	ThreeM         = "3M"
	Axis360        = "Axis 360"
	OCLC           = "OCLC Classify"
	OCLCLinkedData = "OCLC Linked Data"
	Amazon         = "Amazon"
	OpenLibrary    = "Open Library"
	ContentCafe    = "Content Cafe"
	Web            = "Web"
	NYT            = "New York Times"
	LibraryStaff   = "Library staff"
	Manual         = "Manual intervention"
)

// Identifier types.
const (
	TypeGutenbergID = "Gutenberg ID"
	TypeOverdriveID = "Overdrive ID"
	TypeThreeMID    = "3M ID"
	TypeAxis360ID   = "Axis 360 ID"
	TypeISBN        = "ISBN"
	TypeASIN        = "ASIN"
	TypeOCLCWork    = "OCLC Work ID"
	TypeOCLCNumber  = "OCLC Number"
	TypeOpenLibrary = "OLID"
	TypeURI         = "URI"
)

var registry = map[string]DataSource{
	Gutenberg:      {Name: Gutenberg, OffersLicenses: true, PrimaryIdentifierType: TypeGutenbergID},
	Overdrive:      {Name: Overdrive, OffersLicenses: true, PrimaryIdentifierType: TypeOverdriveID},
	ThreeM:         {Name: ThreeM, OffersLicenses: true, PrimaryIdentifierType: TypeThreeMID},
	Axis360:        {Name: Axis360, OffersLicenses: true, PrimaryIdentifierType: TypeAxis360ID},
	Web:            {Name: Web, OffersLicenses: true, PrimaryIdentifierType: TypeURI},
	OCLC:           {Name: OCLC, OffersLicenses: false, PrimaryIdentifierType: TypeOCLCNumber},
	OCLCLinkedData: {Name: OCLCLinkedData, OffersLicenses: false, PrimaryIdentifierType: TypeOCLCNumber},
	Amazon:         {Name: Amazon, OffersLicenses: false, PrimaryIdentifierType: TypeASIN},
	OpenLibrary:    {Name: OpenLibrary, OffersLicenses: false, PrimaryIdentifierType: TypeOpenLibrary},
	ContentCafe:    {Name: ContentCafe, OffersLicenses: false},
	NYT:            {Name: NYT, OffersLicenses: false, PrimaryIdentifierType: TypeISBN},
	LibraryStaff:   {Name: LibraryStaff, OffersLicenses: false, PrimaryIdentifierType: TypeISBN},
	Manual:         {Name: Manual, OffersLicenses: false},
}

// Lookup returns the registered source for a name.
func Lookup(name string) (DataSource, bool) {
	ds, ok := registry[name]
	return ds, ok
}

// OffersLicenses reports whether a named source distributes books itself.
func OffersLicenses(name string) bool {
	return registry[name].OffersLicenses
}

// ClassificationWeightMultiplier scales raw classification weights by how
// much we trust the source's cataloging. OCLC Linked Data classifications
// are mostly machine-generated; Overdrive's are curated by the vendor.
func ClassificationWeightMultiplier(name string) float64 {
	switch name {
	case OCLCLinkedData:
		return 0.1
	case Overdrive:
		return 50
	}
	return 1
}

// AudienceWeightMultiplier reflects that Overdrive reliably distinguishes
// childrens' titles from YA, while 3M does not mark the distinction at all.
func AudienceWeightMultiplier(name string) float64 {
	if name == Overdrive {
		return 50
	}
	return 1
}

// EditionCountQuotient scales the size of an equivalent-identifier set into
// a synthetic popularity measurement for sources whose catalogs carry no
// native popularity signal. Zero means the source gets no synthetic signal.
func EditionCountQuotient(name string) float64 {
	switch name {
	case Gutenberg:
		return 3.0
	case ThreeM:
		return 2.0
	}
	return 0
}
