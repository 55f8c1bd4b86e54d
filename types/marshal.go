package types

var (
	reservedTestKeys = map[string]bool{
		"cid": true, "start": true, "end": true, "duration": true,
		"parent": true, "title": true, "uid": true, "state": true,
		"pass": true, "fail": true, "pending": true, "unknown_state": true,
		"error": true, "screenshot": true,
	}
	reservedSuiteKeys = map[string]bool{
		"cid": true, "start": true, "end": true, "duration": true,
		"title": true, "uid": true, "uuid": true, "file": true,
		"parent": true, "tests": true, "nestedSuites": true,
		"testCount": true, "passCount": true, "failCount": true,
		"skipCount": true, "unknownCount": true,
	}
)

// IsReservedTestKey reports whether key names a built-in test field and so
// can't carry an annotation
func IsReservedTestKey(key string) bool {
	return reservedTestKeys[key]
}

// IsReservedSuiteKey reports whether key names a built-in suite field and
// so can't carry an annotation
func IsReservedSuiteKey(key string) bool {
	return reservedSuiteKeys[key]
}

func (t *TestRecord) MarshalJSON() ([]byte, error) {
	errBlock := t.Error
	if errBlock == nil {
		errBlock = &TestError{}
	}
	screenshots := t.Screenshots
	if screenshots == nil {
		screenshots = []string{}
	}
	fields := []jsonField{
		{"cid", t.CID},
		{"start", t.Start},
		{"end", t.End},
		{"duration", t.Duration},
		{"parent", t.ParentTitle},
		{"title", t.Title},
		{"uid", t.UID},
		{"state", t.State},
		{t.State.legacyFlag(), true},
		{"error", errBlock},
		{"screenshot", screenshots},
	}
	for _, k := range t.Annotations.keys {
		fields = append(fields, jsonField{k, t.Annotations.values[k]})
	}
	return marshalFields(fields)
}

func (s *SuiteRecord) MarshalJSON() ([]byte, error) {
	fields := []jsonField{
		{"cid", s.CID},
		{"start", s.Start},
		{"end", s.End},
		{"duration", s.Duration},
		{"title", s.Title},
		{"uid", s.UID},
		{"uuid", s.UUID},
		{"file", s.File},
	}
	if s.HasParent {
		fields = append(fields, jsonField{"parent", s.ParentTitle})
	}
	fields = append(fields, jsonField{"tests", s.Tests})
	if len(s.NestedSuites) > 0 {
		fields = append(fields, jsonField{"nestedSuites", s.NestedSuites})
	}
	if s.Counts != nil {
		fields = append(fields,
			jsonField{"testCount", s.Counts.TestCount},
			jsonField{"passCount", s.Counts.PassCount},
			jsonField{"failCount", s.Counts.FailCount},
			jsonField{"skipCount", s.Counts.SkipCount},
			jsonField{"unknownCount", s.Counts.UnknownCount},
		)
	}
	for _, k := range s.Annotations.keys {
		fields = append(fields, jsonField{k, s.Annotations.values[k]})
	}
	return marshalFields(fields)
}
