package archive

import "encoding/json"

// record is the cached unit of knowledge about one idigest: the best
// (smallest) score seen so far, or a reported error kind, or both over
// the instance's lifetime.
type record struct {
	BestScore *int      `json:"best_score,omitempty"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
}

func (r *record) marshal() []byte {
	b, _ := json.Marshal(r)
	return b
}

func unmarshalRecord(b []byte) (*record, error) {
	var r record
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func mergeRecords(base *record, patch *record) *record {
	if base == nil {
		base = &record{}
	}
	out := *base
	if patch.BestScore != nil {
		if out.BestScore == nil || *patch.BestScore < *out.BestScore {
			out.BestScore = patch.BestScore
		}
	}
	if patch.ErrorKind != "" {
		out.ErrorKind = patch.ErrorKind
	}
	return &out
}
