package route

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Load reads a city list file. See Parse for the format.
func Load(path string) ([]City, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open city list: %w", err)
	}
	defer f.Close()
	cities, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cities, nil
}

// Parse reads one city per line as "name x,y,z" or "name (x,y,z)". Blank
// lines and lines starting with '#' are skipped.
func Parse(r io.Reader) ([]City, error) {
	var cities []City
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: line %d: expected \"name x,y,z\", got %q", ErrMalformedCity, line, text)
		}
		loc, err := ParsePoint(fields[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		cities = append(cities, City{Name: fields[0], Loc: loc})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read city list: %w", err)
	}
	if len(cities) == 0 {
		return nil, ErrNoCities
	}
	return cities, nil
}
