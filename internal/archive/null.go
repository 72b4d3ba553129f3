package archive

// NullClient implements Client by doing nothing (§4.5 Offline, §4.7).
// Selected when the -offline flag is set or Archive is configured as
// "null"; grounded on the teacher's storage.NullStore, same role for a
// disabled backing store.
type NullClient struct{}

var _ Client = NullClient{}

func (NullClient) FetchBestKnown(string) (int, bool, error) { return 0, false, nil }
func (NullClient) UploadSolution(string, string, int) error { return nil }
func (NullClient) ReportError(string, ErrorKind) error       { return nil }
func (NullClient) Close()                                    {}
