// Package content defines the content entry model shared by sources, the page
// deriver and the build cache.
//
// An Entry is a flat record of model-specific fields plus a Metadata block.
// Its JSON form keeps the metadata under the "__metadata" key so the cache file
// reads the same way site code expects:
//
//	{"__metadata": {"id": "x", "modelName": "PageLayout", "urlPath": "/about"}, "slug": "about", "title": "About"}
package content
