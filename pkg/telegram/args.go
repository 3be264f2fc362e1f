package telegram

import (
	"regexp"
	"strings"

	"github.com/korjavin/teamslots/pkg/apperr"
)

var (
	dateArg  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	clockArg = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
	rangeArg = regexp.MustCompile(`^\d{1,2}:\d{2}-\d{1,2}:\d{2}$`)
)

// AddSlotArgs are the parsed arguments of /addslot. Date is empty when the
// slot is for today.
type AddSlotArgs struct {
	Date        string
	Start       string
	End         string
	Description string
}

// ParseAddSlot accepts
//
//	YYYY-MM-DD HH:MM HH:MM details...
//	HH:MM-HH:MM details...
//	HH:MM HH:MM details...
func ParseAddSlot(args []string) (AddSlotArgs, error) {
	switch {
	case len(args) >= 3 && dateArg.MatchString(args[0]):
		return AddSlotArgs{
			Date:        args[0],
			Start:       args[1],
			End:         args[2],
			Description: strings.Join(args[3:], " "),
		}, nil
	case len(args) >= 1 && rangeArg.MatchString(args[0]):
		start, end, _ := strings.Cut(args[0], "-")
		return AddSlotArgs{
			Start:       start,
			End:         end,
			Description: strings.Join(args[1:], " "),
		}, nil
	case len(args) >= 2 && clockArg.MatchString(args[0]) && clockArg.MatchString(args[1]):
		return AddSlotArgs{
			Start:       args[0],
			End:         args[1],
			Description: strings.Join(args[2:], " "),
		}, nil
	}
	return AddSlotArgs{}, apperr.New(apperr.KindParse, "unrecognised /addslot arguments")
}

// ParseDateArg returns the optional date argument of /me and /team
func ParseDateArg(args []string) string {
	if len(args) > 0 && dateArg.MatchString(args[0]) {
		return args[0]
	}
	return ""
}
