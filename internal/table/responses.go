package table

import "fmt"

// SampleFromFileFunc derives the owning sample from a per-sample response
// file path.
type SampleFromFileFunc func(path string) (string, error)

// AggregateResponses assembles one response row per sample from per-sample
// files. Each file's owning sample is derived by sampleFromFile and
// membership-checked against the declared sample set; a file owned by an
// undeclared sample fails with an *UnknownSampleError. The value is taken
// from dataColumn of the file's first data row. Output rows follow the
// run's declared sample order; a declared sample with no file fails with a
// *MissingSampleError.
func AggregateResponses(files []string, sampleFromFile SampleFromFileFunc, dataColumn string, order []string, declared map[string]struct{}) (*Table, error) {
	values := make(map[string]string, len(files))
	for _, path := range files {
		sample, err := sampleFromFile(path)
		if err != nil {
			return nil, err
		}
		if _, ok := declared[sample]; !ok {
			return nil, &UnknownSampleError{Sample: sample, Source: path}
		}

		t, err := Read(path)
		if err != nil {
			return nil, err
		}
		if t.Len() == 0 {
			return nil, fmt.Errorf("response file %q has no data rows", path)
		}
		v, ok := t.Cell(t.Rows()[0], dataColumn)
		if !ok {
			return nil, fmt.Errorf("response file %q has no column %q", path, dataColumn)
		}
		values[sample] = v
	}

	out := New([]string{dataColumn})
	for _, sample := range order {
		v, ok := values[sample]
		if !ok {
			return nil, &MissingSampleError{Sample: sample}
		}
		if err := out.AddRow(sample, []string{v}); err != nil {
			return nil, err
		}
	}
	return out, nil
}
