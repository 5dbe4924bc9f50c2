package room

import (
	"bufio"
	"os"
	"strconv"
)

// LoadMonitorRoster reads whitespace-separated user-ids from path, once at
// startup (§6). A missing file yields an empty roster rather than an error,
// since a fresh deployment may not have granted any monitors yet.
func LoadMonitorRoster(path string) (map[int32]bool, error) {
	roster := make(map[int32]bool)

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return roster, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Split(bufio.ScanWords)
	for scanner.Scan() {
		id, err := strconv.ParseInt(scanner.Text(), 10, 32)
		if err != nil {
			continue
		}
		roster[int32(id)] = true
	}
	return roster, scanner.Err()
}
