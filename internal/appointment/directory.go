package appointment

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed doctors.yaml
var defaultDoctors []byte

// Directory is the read-only list of doctors accepting appointments.
type Directory struct {
	doctors []Doctor
	byID    map[int]Doctor
}

func DefaultDirectory() *Directory {
	d, err := ParseDirectory(defaultDoctors)
	if err != nil {
		panic(fmt.Sprintf("embedded doctor directory is invalid: %v", err))
	}
	return d
}

func LoadDirectory(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read doctor directory: %w", err)
	}
	return ParseDirectory(data)
}

func ParseDirectory(data []byte) (*Directory, error) {
	var file struct {
		Doctors []Doctor `yaml:"doctors"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse doctor directory: %w", err)
	}

	d := &Directory{byID: make(map[int]Doctor, len(file.Doctors))}
	for _, doc := range file.Doctors {
		if doc.ID <= 0 || doc.Name == "" {
			return nil, fmt.Errorf("doctor entry needs an id and a name: %+v", doc)
		}
		if _, dup := d.byID[doc.ID]; dup {
			return nil, fmt.Errorf("duplicate doctor id %d", doc.ID)
		}
		if doc.Type != TypeInPerson && doc.Type != TypeOnline {
			return nil, fmt.Errorf("doctor %d: unknown appointment type %q", doc.ID, doc.Type)
		}
		d.byID[doc.ID] = doc
		d.doctors = append(d.doctors, doc)
	}
	return d, nil
}

// Filter returns doctors matching specialty and type. Empty arguments match
// everything; comparison ignores case.
func (d *Directory) Filter(specialty, typ string) []Doctor {
	out := []Doctor{}
	for _, doc := range d.doctors {
		if specialty != "" && !strings.EqualFold(doc.Specialty, specialty) {
			continue
		}
		if typ != "" && !strings.EqualFold(doc.Type, typ) {
			continue
		}
		out = append(out, doc)
	}
	return out
}

func (d *Directory) ByID(id int) (Doctor, bool) {
	doc, ok := d.byID[id]
	return doc, ok
}
