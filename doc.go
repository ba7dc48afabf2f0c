package imagery

// This package defines common methods and operations for curating and publishing an index of geographic imagery sources.  Common operations include: Building the canonical catalog artifacts from per-record files and generating the legacy export formats older catalog consumers expect.
