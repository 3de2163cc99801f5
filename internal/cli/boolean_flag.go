package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/temirov/slw/internal/config"
)

const (
	booleanFlagTypeName               = "bool"
	booleanFlagTrueLiteral            = "true"
	booleanFlagAcceptedValuesListing  = "true, false, yes, no, on, off, 1, 0"
	booleanFlagInvalidValueErrorLabel = "invalid boolean value"
)

// booleanFlagValue accepts the lenient spellings understood by configuration files
// and environment variables, so --copy no and --format-block-quotes=off both work.
type booleanFlagValue struct {
	target  *bool
	flagKey string
}

func (value *booleanFlagValue) Set(input string) error {
	if value == nil || value.target == nil {
		return fmt.Errorf("%s %q for flag %q", booleanFlagInvalidValueErrorLabel, input, value.flagKey)
	}
	if strings.TrimSpace(input) == "" {
		input = booleanFlagTrueLiteral
	}
	parsed, ok := config.ParseLenientBool(input)
	if !ok {
		return fmt.Errorf("%s %q for --%s; accepted values: %s", booleanFlagInvalidValueErrorLabel, input, value.flagKey, booleanFlagAcceptedValuesListing)
	}
	*value.target = parsed
	return nil
}

func (value *booleanFlagValue) String() string {
	if value == nil || value.target == nil {
		return booleanFlagTrueLiteral
	}
	return strconv.FormatBool(*value.target)
}

func (value *booleanFlagValue) Type() string {
	return booleanFlagTypeName
}

func registerBooleanFlag(flagSet *pflag.FlagSet, target *bool, name string, defaultValue bool, usage string) {
	if flagSet == nil || target == nil {
		return
	}
	*target = defaultValue
	flagValue := &booleanFlagValue{
		target:  target,
		flagKey: name,
	}
	flagSet.Var(flagValue, name, usage)
	if lookup := flagSet.Lookup(name); lookup != nil {
		lookup.DefValue = strconv.FormatBool(defaultValue)
		lookup.NoOptDefVal = booleanFlagTrueLiteral
	}
}

// normalizeBooleanFlagArguments joins "--flag value" into "--flag=value" for boolean
// flags when value is a boolean literal. Other trailing values stay positional.
func normalizeBooleanFlagArguments(command *cobra.Command, arguments []string) []string {
	booleanFlags := booleanFlagNames(command)
	if len(booleanFlags) == 0 {
		return arguments
	}
	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		argument := arguments[index]
		if argument == "--" {
			return append(normalized, arguments[index:]...)
		}
		if joined, ok := joinBooleanValue(argument, arguments[index+1:], booleanFlags); ok {
			normalized = append(normalized, joined)
			index++
			continue
		}
		normalized = append(normalized, argument)
	}
	return normalized
}

func joinBooleanValue(argument string, rest []string, booleanFlags map[string]bool) (string, bool) {
	if !strings.HasPrefix(argument, "--") || strings.Contains(argument, "=") || len(rest) == 0 {
		return "", false
	}
	flagName := strings.TrimPrefix(argument, "--")
	if !booleanFlags[flagName] || strings.HasPrefix(rest[0], "-") {
		return "", false
	}
	if _, valid := config.ParseLenientBool(rest[0]); !valid {
		return "", false
	}
	return fmt.Sprintf("--%s=%s", flagName, rest[0]), true
}

// booleanFlagNames collects the boolean flags of command and all of its subcommands.
func booleanFlagNames(command *cobra.Command) map[string]bool {
	names := map[string]bool{}
	if command == nil {
		return names
	}
	record := func(flag *pflag.Flag) {
		if flag.Value != nil && flag.Value.Type() == booleanFlagTypeName {
			names[flag.Name] = true
		}
	}
	command.PersistentFlags().VisitAll(record)
	command.Flags().VisitAll(record)
	for _, child := range command.Commands() {
		for name := range booleanFlagNames(child) {
			names[name] = true
		}
	}
	return names
}
