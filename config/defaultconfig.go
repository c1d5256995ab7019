package config

// DefaultConfiguration is the configuration that will be in effect if no configuration is loaded from any of the expected locations
const DefaultConfiguration = `[rdbms]
dialect=sqlite3
connection-url=task-broker.sqlite3?_foreign_keys=on
connxn-max-idle-time-seconds=0
connxn-max-lifetime-seconds=0
max-idle-connxns=30
max-open-connxns=100
[http]
listener=:8080
read-timeout=240
write-timeout=240
[log]
filename=
max-file-size-in-mb=200
max-backups=3
max-age-in-days=28
compress-backups=true
log-level=info
[queue]
max-attempts=5
visibility-timeout-seconds=300
poll-batch-size=25
poll-interval-millis=500
poll-interval-ceiling-millis=10000
retry-backoff-base-seconds=5
retry-backoff-cap-seconds=300
[worker]
worker-id=
max-workers=16
job-queue-size=1000
stop-timeout-seconds=30
[dedup]
enabled=true
gate-lock-ttl-seconds=5
marker-ttl-seconds=600
local-cache-ttl-seconds=60
[coordinator]
enabled=true
heartbeat-interval-seconds=5
heartbeat-ttl-seconds=15
observation-window-seconds=15
epoch-ttl-seconds=15
ticket-ttl-seconds=30
ticket-batch-size=100
degrade-threshold-seconds=20
[sweeper]
interval-seconds=30
batch-size=100
[dead-letter]
archive-enabled=false
export-path=/tmp/task-broker-dead-letters
export-node-name=default
remote-export-url=
remote-file-prefix=
max-archive-file-size-in-mb=100
`
