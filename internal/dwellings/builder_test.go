package dwellings

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dwellings.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const flatHeader = "level,code,name,total_all,s_total,s_occupied,s_empty,for_rent,for_sale,vacation,secondary,other_reason,non_normal"

func TestParseFlat(t *testing.T) {
	csv := flatHeader + "\n" +
		"3,A35,ΠΕΡΙΦΕΡΕΙΑ ΑΤΤΙΚΗΣ,9000,8000,5000,3000,500,100,1200,800,400,1000\n" +
		"5,9101,ΔΗΜΟΣ ΑΘΗΝΑΙΩΝ,1100,1000,650,350,60,10,150,100,30,100\n" +
		"5,9102,ΔΗΜΟΣ ΠΕΙΡΑΙΩΣ,550,500,400,100,20,5,40,25,10,50\n"
	path := writeTempCSV(t, csv)

	b := NewBuilder(DefaultVocabulary(), testLogger())
	table, err := b.ParseFlat(path)
	require.NoError(t, err)

	// Region-level row is filtered out.
	assert.Equal(t, 2, table.Len())

	rec, ok := table.Lookup("ΑΘΗΝΑΙΩΝ")
	require.True(t, ok)
	assert.Equal(t, 9101, rec.Code)
	assert.Equal(t, "ΑΘΗΝΑΙΩΝ", rec.Name)
	assert.Equal(t, "ΔΗΜΟΣ ΑΘΗΝΑΙΩΝ", rec.RawName)
	assert.Equal(t, 1000, rec.TotalDwellings)
	assert.Equal(t, 150, rec.Count(CategoryVacation))
	assert.Equal(t, 100, rec.Count(CategorySecondary))
	assert.Equal(t, 60, rec.Count(CategoryForRent))
	assert.Equal(t, 10, rec.Count(CategoryForSale))
	assert.Equal(t, 30, rec.Count(CategoryOtherLocked))
	assert.Equal(t, 650, rec.Count(CategoryOccupied))
	assert.Equal(t, 350, rec.LockedTotal())
}

func TestParseFlatLevel(t *testing.T) {
	csv := flatHeader + "\n" +
		"3,1,ΑΤΤΙΚΗ,9900,9000,6000,3000,500,100,1200,800,400,900\n" +
		"4,47,ΚΕΝΤΡΙΚΟΣ ΤΟΜΕΑΣ ΑΘΗΝΩΝ,4400,4000,2800,1200,200,50,500,350,100,400\n" +
		"5,9101,ΔΗΜΟΣ ΑΘΗΝΑΙΩΝ,1100,1000,650,350,60,10,150,100,30,100\n"
	path := writeTempCSV(t, csv)

	b := NewBuilder(DefaultVocabulary(), testLogger())

	regions, err := b.ParseFlatLevel(path, LevelRegion)
	require.NoError(t, err)
	require.Equal(t, 1, regions.Len())
	attica, ok := regions.Lookup("ΑΤΤΙΚΗ")
	require.True(t, ok)
	assert.Equal(t, 9000, attica.TotalDwellings)
	assert.Equal(t, 3000, attica.LockedTotal())

	units, err := b.ParseFlatLevel(path, LevelRegionalUnit)
	require.NoError(t, err)
	require.Equal(t, 1, units.Len())
	unit, ok := units.Lookup("ΚΕΝΤΡΙΚΟΣ ΤΟΜΕΑΣ ΑΘΗΝΩΝ")
	require.True(t, ok)
	assert.Equal(t, 4000, unit.TotalDwellings)

	// A level without rows yields an empty table, not an error.
	empty, err := b.ParseFlatLevel(writeTempCSV(t, flatHeader+"\n"), LevelRegion)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
}

func TestParseFlatUnknownHeader(t *testing.T) {
	csv := "level,code,name,s_total,for_rent,for_sale,vacation,secondary,other_reason,mystery_column\n" +
		"5,9101,ΔΗΜΟΣ ΑΘΗΝΑΙΩΝ,1000,60,10,150,100,30,7\n"
	path := writeTempCSV(t, csv)

	b := NewBuilder(DefaultVocabulary(), testLogger())
	_, err := b.ParseFlat(path)
	require.Error(t, err)
	assert.True(t, IsType(err, ErrorTypeSchemaMismatch))
	assert.Contains(t, err.Error(), "mystery_column")
}

func TestParseFlatMissingRequiredColumn(t *testing.T) {
	csv := "level,code,name,s_total,for_rent,for_sale,vacation,secondary\n" +
		"5,9101,ΔΗΜΟΣ ΑΘΗΝΑΙΩΝ,1000,60,10,150,100\n"
	path := writeTempCSV(t, csv)

	b := NewBuilder(DefaultVocabulary(), testLogger())
	_, err := b.ParseFlat(path)
	require.Error(t, err)
	assert.True(t, IsType(err, ErrorTypeSchemaMismatch))
	assert.Contains(t, err.Error(), "other_locked")
}

func TestParseFlatDropsZeroDwellingRows(t *testing.T) {
	csv := flatHeader + "\n" +
		"5,9101,ΔΗΜΟΣ ΑΘΗΝΑΙΩΝ,1100,1000,650,350,60,10,150,100,30,100\n" +
		"5,9999,ΔΗΜΟΣ ΕΡΗΜΟΣ,0,0,0,0,0,0,0,0,0,0\n"
	path := writeTempCSV(t, csv)

	b := NewBuilder(DefaultVocabulary(), testLogger())
	table, err := b.ParseFlat(path)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())
}

func TestParseFlatMissingFile(t *testing.T) {
	b := NewBuilder(DefaultVocabulary(), testLogger())
	_, err := b.ParseFlat(filepath.Join(t.TempDir(), "no_such_file.csv"))
	require.Error(t, err)
	assert.True(t, IsType(err, ErrorTypeMissingInput))
}

func TestParseFlatDuplicateConflict(t *testing.T) {
	csv := flatHeader + "\n" +
		"5,9101,ΔΗΜΟΣ ΑΘΗΝΑΙΩΝ,1100,1000,650,350,60,10,150,100,30,100\n" +
		"5,9101,ΔΗΜΟΣ ΑΘΗΝΑΙΩΝ,1100,1000,700,300,50,10,140,80,20,100\n"
	path := writeTempCSV(t, csv)

	b := NewBuilder(DefaultVocabulary(), testLogger())
	_, err := b.ParseFlat(path)
	require.Error(t, err)
	assert.True(t, IsType(err, ErrorTypeDuplicateKey))
	assert.Contains(t, err.Error(), "ΑΘΗΝΑΙΩΝ")
}

func TestParseFlatDuplicateIdenticalCollapses(t *testing.T) {
	row := "5,9101,ΔΗΜΟΣ ΑΘΗΝΑΙΩΝ,1100,1000,650,350,60,10,150,100,30,100\n"
	path := writeTempCSV(t, flatHeader+"\n"+row+row)

	b := NewBuilder(DefaultVocabulary(), testLogger())
	table, err := b.ParseFlat(path)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())
}

func TestMergeUnionsAndZeroFills(t *testing.T) {
	b := NewBuilder(DefaultVocabulary(), testLogger())

	left := NewTable()
	require.NoError(t, left.Insert("left", Record{
		Code: 9101, RawName: "ΔΗΜΟΣ ΑΘΗΝΑΙΩΝ", Name: "ΑΘΗΝΑΙΩΝ",
		TotalDwellings: 1000,
		Counts: map[Category]int{
			CategoryForRent: 60, CategoryForSale: 10,
			CategoryVacation: 150, CategorySecondary: 100, CategoryOtherLocked: 30,
		},
	}))
	right := NewTable()
	require.NoError(t, right.Insert("right", Record{
		RawName: "ΔΗΜΟΣ ΑΘΗΝΑΙΩΝ", Name: "ΑΘΗΝΑΙΩΝ",
		TotalDwellings: 1000,
		Counts:         map[Category]int{CategoryOccupied: 650},
	}))
	require.NoError(t, right.Insert("right", Record{
		RawName: "ΔΗΜΟΣ ΠΕΙΡΑΙΩΣ", Name: "ΠΕΙΡΑΙΩΣ",
		TotalDwellings: 500,
		Counts:         map[Category]int{CategoryForRent: 20},
	}))

	merged, err := b.Merge(left, right)
	require.NoError(t, err)
	assert.Equal(t, 2, merged.Len())

	athens, ok := merged.Lookup("ΑΘΗΝΑΙΩΝ")
	require.True(t, ok)
	assert.Equal(t, 9101, athens.Code)
	assert.Equal(t, 650, athens.Count(CategoryOccupied))
	assert.Equal(t, 350, athens.LockedTotal())

	// Categories never seen for a municipality read as zero.
	piraeus, ok := merged.Lookup("ΠΕΙΡΑΙΩΣ")
	require.True(t, ok)
	assert.Equal(t, 0, piraeus.Count(CategoryVacation))
	assert.Equal(t, 20, piraeus.LockedTotal())
}

func TestMergeConflictingCounts(t *testing.T) {
	b := NewBuilder(DefaultVocabulary(), testLogger())

	left := NewTable()
	require.NoError(t, left.Insert("left", Record{
		RawName: "ΔΗΜΟΣ ΑΘΗΝΑΙΩΝ", Name: "ΑΘΗΝΑΙΩΝ",
		TotalDwellings: 1000,
		Counts:         map[Category]int{CategoryForRent: 60},
	}))
	right := NewTable()
	require.NoError(t, right.Insert("right", Record{
		RawName: "ΔΗΜΟΣ ΑΘΗΝΑΙΩΝ", Name: "ΑΘΗΝΑΙΩΝ",
		TotalDwellings: 1000,
		Counts:         map[Category]int{CategoryForRent: 55},
	}))

	_, err := b.Merge(left, right)
	require.Error(t, err)
	assert.True(t, IsType(err, ErrorTypeDuplicateKey))
}

func TestRecordValidate(t *testing.T) {
	valid := Record{
		Name: "ΑΘΗΝΑΙΩΝ", TotalDwellings: 1000,
		Counts: map[Category]int{CategoryOccupied: 650, CategoryVacation: 150},
	}
	assert.NoError(t, valid.Validate())

	negative := Record{
		Name: "ΑΘΗΝΑΙΩΝ", TotalDwellings: 1000,
		Counts: map[Category]int{CategoryVacation: -1},
	}
	assert.Error(t, negative.Validate())

	overflow := Record{
		Name: "ΑΘΗΝΑΙΩΝ", TotalDwellings: 100,
		Counts: map[Category]int{CategoryOccupied: 80, CategoryVacation: 30},
	}
	assert.Error(t, overflow.Validate())
}

func TestCleanName(t *testing.T) {
	assert.Equal(t, "ΑΘΗΝΑΙΩΝ", CleanName("ΔΗΜΟΣ ΑΘΗΝΑΙΩΝ"))
	assert.Equal(t, "ΑΘΗΝΑΙΩΝ", CleanName("  ΔΗΜΟΣ ΑΘΗΝΑΙΩΝ "))
	assert.Equal(t, "ΗΡΑΚΛΕΙΟΥ", CleanName("ΗΡΑΚΛΕΙΟΥ"))
}

func TestJoinHeaderRows(t *testing.T) {
	block := [][]string{
		{"Γεωγραφικό επίπεδο", "Κωδικός", "Περιγραφή", "Κενές", "", ""},
		{"", "", "", "Σύνολο", "Προς ενοικίαση", "Εξοχική κατοικία"},
	}
	headers := joinHeaderRows(block)
	assert.Equal(t, []string{
		"Γεωγραφικό επίπεδο", "Κωδικός", "Περιγραφή",
		"Κενές Σύνολο", "Προς ενοικίαση", "Εξοχική κατοικία",
	}, headers)
}
