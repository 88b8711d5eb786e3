package cryptox

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

const (
	// SharePathPrefix is the path segment that precedes a document id.
	SharePathPrefix = "/g/"

	keyFragmentParam = "key"
)

// ShareURL builds a shareable locator for document id. The key travels in
// the URL fragment, which user agents never send to a server:
//
//	https://ghostpaste.dev/g/Xk3..#key=q8Z..
func ShareURL(baseURL, id string, k Key) (string, error) {
	if id == "" {
		return "", fmt.Errorf("%w: empty id", ErrInvalidShareURL)
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidShareURL, err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + SharePathPrefix + id
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = keyFragmentParam + "=" + ExportKey(k)
	return u.String(), nil
}

// ParseShareURL extracts the document id and key from a share locator.
func ParseShareURL(raw string) (string, Key, error) {
	id, frag, err := splitShareURL(raw)
	if err != nil {
		return "", Key{}, err
	}

	values, err := url.ParseQuery(frag)
	if err != nil {
		return "", Key{}, fmt.Errorf("%w: bad fragment", ErrInvalidShareURL)
	}
	exported := values.Get(keyFragmentParam)
	if exported == "" {
		return "", Key{}, ErrMissingKey
	}

	k, err := ImportKey(exported)
	if err != nil {
		return "", Key{}, err
	}
	return id, k, nil
}

// ShareID extracts only the document id. It works for locators with or
// without a key fragment.
func ShareID(raw string) (string, error) {
	id, _, err := splitShareURL(raw)
	return id, err
}

// RequestURL returns raw with its fragment removed. This is the only form
// of a share locator that may be transmitted to the storage tier.
func RequestURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidShareURL, err)
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), nil
}

func splitShareURL(raw string) (id string, fragment string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidShareURL, err)
	}

	dir, id := path.Split(u.Path)
	if !strings.HasSuffix(dir, SharePathPrefix) || id == "" {
		return "", "", fmt.Errorf("%w: path %q", ErrInvalidShareURL, u.Path)
	}
	return id, u.Fragment, nil
}
