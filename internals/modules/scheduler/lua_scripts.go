package scheduler

// scheduleKey = "monitor:schedule"

const fetchDueMonitorsScript = `
local key = KEYS[1]
local now = ARGV[1]
local limit = tonumber(ARGV[2])

local items = redis.call("ZRANGEBYSCORE", key, "-inf", now, "LIMIT", 0, limit)

for i, member in ipairs(items) do
	redis.call("ZREM", key, member)
end

return items
`
