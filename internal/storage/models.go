package storage

// Table describes how a record kind is laid out in the store.
type Table struct {
	Name       string
	PrimaryKey string
	// Owner is the column holding the owning user id.
	Owner   string
	Columns []string
	// Generated is true when the store assigns the primary key on insert.
	Generated bool
}

// Record is implemented by every entity handled by Repository.
type Record interface {
	Table() Table
}

func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

var (
	stageTable = Table{
		Name:       "stage",
		PrimaryKey: "user_id",
		Owner:      "user_id",
		Columns:    []string{"user_id", "name", "awaiting"},
	}
	productTable = Table{
		Name:       "product",
		PrimaryKey: "id",
		Owner:      "user_id",
		Columns:    []string{"id", "user_id", "name"},
		Generated:  true,
	}
	bookmarkTable = Table{
		Name:       "bookmark",
		PrimaryKey: "id",
		Owner:      "user_id",
		Columns:    []string{"id", "user_id", "text"},
		Generated:  true,
	}
)

// Stage is the single per-user row tracking the last action and the expected input.
type Stage struct {
	UserID   int64  `db:"user_id"`
	Name     string `db:"name"`
	Awaiting string `db:"awaiting"`
}

func (Stage) Table() Table { return stageTable }

type Product struct {
	ID     int64  `db:"id"`
	UserID int64  `db:"user_id"`
	Name   string `db:"name"`
}

func (Product) Table() Table { return productTable }

type Bookmark struct {
	ID     int64  `db:"id"`
	UserID int64  `db:"user_id"`
	Text   string `db:"text"`
}

func (Bookmark) Table() Table { return bookmarkTable }
