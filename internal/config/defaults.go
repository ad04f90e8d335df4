package config

import "time"

// GetDefaultConfigTemplate returns a commented config file with every key.
func GetDefaultConfigTemplate() string {
	return `# codebuilder configuration
# Every key can be overridden with CODEBUILDER_<KEY>; nested keys use a double
# underscore (CODEBUILDER_RETRY__MAX_ATTEMPTS).

# AWS settings
region: us-west-2                     # Region of the project, function and state machine
account: "12345678910"                # 12 digit AWS account id (replace before running)
project_name: codebuilder             # CodeBuild project and Lambda function name
state_machine_name: codebuilder_state_machine
bucket: sample-create-react-app       # Passed to the build as BUCKET (replace or remove)

log_level: info                       # debug | info | warn | error

# History settings
state_dir: ~/.codebuilder/state       # Directory for history.yml
max_history_entries: 200              # Max recorded runs to retain

# Polling of a running build (rendered into the state machine)
retry:
  interval_seconds: 10
  max_attempts: 60
  backoff_rate: 1.0

# How long 'codebuilder run' waits for the build id
launch:
  max_tries: 10
  interval: 5s

# Slack delayed replies
notifications:
  timeout: 5s
`
}

// GetDefaults returns the default configuration values
func GetDefaults() map[string]interface{} {
	retry := map[string]interface{}{
		"interval_seconds": 10,
		"max_attempts":     60, // 10 minutes at the default interval
		"backoff_rate":     1.0,
	}
	return map[string]interface{}{
		"region":              "us-west-2",
		"project_name":        "codebuilder",
		"account":             "",
		"state_machine_name":  "codebuilder_state_machine",
		"bucket":              "",
		"log_level":           "info",
		"state_dir":           "~/.codebuilder/state",
		"max_history_entries": 200,
		"retry":               retry,
		"launch": map[string]interface{}{
			"max_tries": 10,
			"interval":  (5 * time.Second).String(),
		},
		"notifications": map[string]interface{}{
			"timeout": (5 * time.Second).String(),
		},
	}
}
