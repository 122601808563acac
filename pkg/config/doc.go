/*
Package config validates the options of a slimcopy run.

	            +-------------+
	            |   Options   |
	            | (Run input) |
	            +------+------+
	                   |
	      +-----------+-----------+
	      |           |           |
	+-----+----+ +----+----+ +----+----+
	|   YAML   | |  JSON   | |   HCL   |
	| Profile  | | Profile | | Profile |
	+----------+ +---------+ +---------+

🎯 Purpose:
- Loads saved run profiles (--config)
- Normalizes paths (~ expansion, absolute paths)
- Rejects unusable sources, destinations and ignore files before any walk starts

🔄 Flow:
1. LoadProfile reads a profile through afero and picks a Parser by extension
2. The CLI overlays explicit flags on top of the profile
3. Validate checks every path and creates the destination directory if only
   its last element is missing

⚠️ Errors:
Every rejected option is a *ConfigurationError naming the field, the path and
the reason.
*/
package config
