package core

// Snapshot is a consistent read of the whole ledger, taken inside a single
// storage transaction. Lookup indexes are built once at construction and
// shared by the seeding path (identification -> client, invoice number ->
// invoice, folded platform name -> platform) and by the report engine's
// join steps.
//
// A Snapshot is immutable after NewSnapshot returns; concurrent reads need
// no locking.
type Snapshot struct {
	Clients      []Client
	Platforms    []Platform
	Invoices     []Invoice
	Transactions []Transaction

	clientsByID             map[int64]*Client
	clientsByIdentification map[string]*Client
	platformsByID           map[int64]*Platform
	platformsByFoldedName   map[string]*Platform
	invoicesByID            map[int64]*Invoice
	invoicesByNumber        map[string]*Invoice
}

// NewSnapshot builds the lookup indexes over the given collections. The
// slices are retained, not copied; callers hand over ownership.
func NewSnapshot(clients []Client, platforms []Platform, invoices []Invoice, transactions []Transaction) *Snapshot {
	s := &Snapshot{
		Clients:      clients,
		Platforms:    platforms,
		Invoices:     invoices,
		Transactions: transactions,

		clientsByID:             make(map[int64]*Client, len(clients)),
		clientsByIdentification: make(map[string]*Client, len(clients)),
		platformsByID:           make(map[int64]*Platform, len(platforms)),
		platformsByFoldedName:   make(map[string]*Platform, len(platforms)),
		invoicesByID:            make(map[int64]*Invoice, len(invoices)),
		invoicesByNumber:        make(map[string]*Invoice, len(invoices)),
	}
	for i := range clients {
		c := &clients[i]
		s.clientsByID[c.ID] = c
		s.clientsByIdentification[c.Identification] = c
	}
	for i := range platforms {
		p := &platforms[i]
		s.platformsByID[p.ID] = p
		s.platformsByFoldedName[FoldName(p.Name)] = p
	}
	for i := range invoices {
		inv := &invoices[i]
		s.invoicesByID[inv.ID] = inv
		s.invoicesByNumber[inv.InvoiceNumber] = inv
	}
	return s
}

// ClientByID looks up a client by primary key.
func (s *Snapshot) ClientByID(id int64) (*Client, bool) {
	c, ok := s.clientsByID[id]
	return c, ok
}

// ClientByIdentification looks up a client by its external identification.
func (s *Snapshot) ClientByIdentification(identification string) (*Client, bool) {
	c, ok := s.clientsByIdentification[identification]
	return c, ok
}

// PlatformByID looks up a platform by primary key.
func (s *Snapshot) PlatformByID(id int64) (*Platform, bool) {
	p, ok := s.platformsByID[id]
	return p, ok
}

// PlatformByName looks up a platform by name, case-insensitively.
func (s *Snapshot) PlatformByName(name string) (*Platform, bool) {
	p, ok := s.platformsByFoldedName[FoldName(name)]
	return p, ok
}

// InvoiceByID looks up an invoice by primary key.
func (s *Snapshot) InvoiceByID(id int64) (*Invoice, bool) {
	inv, ok := s.invoicesByID[id]
	return inv, ok
}

// InvoiceByNumber looks up an invoice by its unique invoice number.
func (s *Snapshot) InvoiceByNumber(number string) (*Invoice, bool) {
	inv, ok := s.invoicesByNumber[number]
	return inv, ok
}
