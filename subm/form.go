package subm

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
)

// Screenshot is an uploaded image file.
type Screenshot struct {
	Filename    string
	ContentType string
	Size        int64
	Content     []byte
}

// Form is a decoded multipart submission request. Keys follow the
// "companyName", "submissions.{i}.contractorName", "submissions.{i}.screenshot"
// naming used by the upload form.
type Form struct {
	Values map[string][]string
	Files  map[string][]Screenshot
}

const companyNameField = "companyName"

var contractorNameFieldRe = regexp.MustCompile(`^submissions\.(\d+)\.contractorName$`)

func contractorNameField(idx int) string {
	return fmt.Sprintf("submissions.%d.contractorName", idx)
}

func screenshotField(idx int) string {
	return fmt.Sprintf("submissions.%d.screenshot", idx)
}

// Value returns the first value stored under key or "".
func (f Form) Value(key string) string {
	vs := f.Values[key]
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

// File returns the first file stored under key.
func (f Form) File(key string) (Screenshot, bool) {
	fs := f.Files[key]
	if len(fs) == 0 {
		return Screenshot{}, false
	}
	return fs[0], true
}

// CompanyName returns the batch-wide company name.
func (f Form) CompanyName() string {
	return f.Value(companyNameField)
}

// EntryIndices returns the distinct entry indices that carry a contractor
// name field, ascending. Indices need not be contiguous.
func (f Form) EntryIndices() []int {
	var indices []int
	for key := range f.Values {
		m := contractorNameFieldRe.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue // out of int range
		}
		indices = append(indices, idx)
	}
	slices.Sort(indices)
	return slices.Compact(indices)
}

// Entry is one contractor name and screenshot pair.
type Entry struct {
	Index          int
	ContractorName string
	Screenshot     Screenshot
	HasScreenshot  bool
}

// Entry fetches the fields of the entry at idx.
func (f Form) Entry(idx int) Entry {
	shot, ok := f.File(screenshotField(idx))
	return Entry{
		Index:          idx,
		ContractorName: f.Value(contractorNameField(idx)),
		Screenshot:     shot,
		HasScreenshot:  ok,
	}
}

// NewForm builds a form in memory, mostly for tests and tooling.
func NewForm(companyName string) *Form {
	f := &Form{
		Values: map[string][]string{},
		Files:  map[string][]Screenshot{},
	}
	if companyName != "" {
		f.Values[companyNameField] = []string{companyName}
	}
	return f
}

// AddContractor sets the contractor name of entry idx.
func (f *Form) AddContractor(idx int, name string) *Form {
	f.Values[contractorNameField(idx)] = []string{name}
	return f
}

// AddScreenshot sets the screenshot of entry idx.
func (f *Form) AddScreenshot(idx int, shot Screenshot) *Form {
	f.Files[screenshotField(idx)] = []Screenshot{shot}
	return f
}
