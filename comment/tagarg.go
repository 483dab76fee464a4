package comment

import "github.com/skystar-p/zoog"

// ParseTagArg parses a CLI `-t NAME=VALUE` argument into its key and value.
// Unlike ParseRemovePattern, a tag argument always requires the '='; a bare
// name is rejected.
func ParseTagArg(s string) (key, value string, err error) {
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			key, value = s[:i], s[i+1:]
			if verr := validatePatternKey(key); verr != nil {
				return "", "", verr
			}
			return key, value, nil
		}
	}
	return "", "", &zoog.Error{Kind: zoog.InvalidCommentFieldName, Reason: "tag argument is missing '='"}
}
