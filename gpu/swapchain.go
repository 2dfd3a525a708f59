package gpu

import (
	"cmp"
	"math"

	"hello-vulkan/config"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Swapchain is the set of images presented to the window surface together with
// one image view per image.
type Swapchain struct {
	Handle vk.Swapchain
	Images []vk.Image
	Views  []vk.ImageView
	Format vk.Format
	Extent vk.Extent2D
}

// supportDetails describes a present surface. The type is suitable for passing
// around many details of the surface between functions.
type supportDetails struct {
	capabilities vk.SurfaceCapabilities
	formats      []vk.SurfaceFormat
	presentModes []vk.PresentMode
}

func (d supportDetails) adequate() bool {
	return len(d.formats) > 0 && len(d.presentModes) > 0
}

// CreateSwapchain creates the swapchain and its image views for the current
// framebuffer size of the window.
func (r *Resource) CreateSwapchain() error {
	support, err := r.querySwapchainSupport(r.PhysicalDevice)
	if err != nil {
		return err
	}

	surfaceFormat, err := chooseSurfaceFormat(support.formats)
	if err != nil {
		return err
	}
	presentMode := choosePresentMode(
		presentModeByName(r.cfg.PresentMode),
		support.presentModes,
	)
	width, height := r.window.FramebufferSize()
	extent := chooseExtent(support.capabilities, width, height)
	imageCount := chooseImageCount(support.capabilities)

	r.log.Debug("creating swapchain",
		"width", extent.Width,
		"height", extent.Height,
		"images", imageCount,
		"present_mode", presentModeName(presentMode),
	)

	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          r.Surface,
		MinImageCount:    imageCount,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageFormat:      surfaceFormat.Format,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     support.capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      presentMode,
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
	}

	if r.Families.Shared() {
		createInfo.ImageSharingMode = vk.SharingModeExclusive
	} else {
		families := r.Families.Unique()
		createInfo.ImageSharingMode = vk.SharingModeConcurrent
		createInfo.QueueFamilyIndexCount = uint32(len(families))
		createInfo.PQueueFamilyIndices = families
	}

	var swapchain vk.Swapchain
	res := vk.CreateSwapchain(r.Device, &createInfo, nil, &swapchain)
	if err := VkError(res); err != nil {
		return errors.Wrap(err, "failed to create swap chain")
	}
	r.Swapchain.Handle = swapchain
	r.Swapchain.Format = surfaceFormat.Format
	r.Swapchain.Extent = extent

	var imagesCount uint32
	res = vk.GetSwapchainImages(r.Device, swapchain, &imagesCount, nil)
	if err := VkError(res); err != nil {
		return errors.Wrap(err, "failed to get the number of swap chain images")
	}

	images := make([]vk.Image, imagesCount)
	res = vk.GetSwapchainImages(r.Device, swapchain, &imagesCount, images)
	if err := VkError(res); err != nil {
		return errors.Wrap(err, "failed to get swap chain images")
	}
	r.Swapchain.Images = images

	return r.createImageViews()
}

func (r *Resource) createImageViews() error {
	for i, image := range r.Swapchain.Images {
		createInfo := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    image,
			ViewType: vk.ImageViewType2d,
			Format:   r.Swapchain.Format,
			Components: vk.ComponentMapping{
				R: vk.ComponentSwizzleIdentity,
				G: vk.ComponentSwizzleIdentity,
				B: vk.ComponentSwizzleIdentity,
				A: vk.ComponentSwizzleIdentity,
			},
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		}

		var imageView vk.ImageView
		res := vk.CreateImageView(r.Device, &createInfo, nil, &imageView)
		if err := VkError(res); err != nil {
			return errors.Wrapf(err, "failed to create image view %d", i)
		}

		r.Swapchain.Views = append(r.Swapchain.Views, imageView)
	}

	return nil
}

// DestroySwapchain destroys the image views and the swapchain. Framebuffers
// which use the views must be destroyed before calling it.
func (r *Resource) DestroySwapchain() {
	for _, imageView := range r.Swapchain.Views {
		vk.DestroyImageView(r.Device, imageView, nil)
	}

	if r.Swapchain.Handle != vk.NullSwapchain {
		vk.DestroySwapchain(r.Device, r.Swapchain.Handle, nil)
	}

	r.Swapchain = Swapchain{Handle: vk.NullSwapchain}
}

func (r *Resource) querySwapchainSupport(device vk.PhysicalDevice) (supportDetails, error) {
	details := supportDetails{}

	var capabilities vk.SurfaceCapabilities
	res := vk.GetPhysicalDeviceSurfaceCapabilities(device, r.Surface, &capabilities)
	if err := VkError(res); err != nil {
		return details, errors.Wrap(err, "failed to query device surface capabilities")
	}
	capabilities.Deref()
	capabilities.CurrentExtent.Deref()
	capabilities.MinImageExtent.Deref()
	capabilities.MaxImageExtent.Deref()

	details.capabilities = capabilities

	var formatCount uint32
	res = vk.GetPhysicalDeviceSurfaceFormats(device, r.Surface, &formatCount, nil)
	if err := VkError(res); err != nil {
		return details, errors.Wrap(err, "failed to query device surface formats")
	}

	if formatCount != 0 {
		formats := make([]vk.SurfaceFormat, formatCount)
		res = vk.GetPhysicalDeviceSurfaceFormats(device, r.Surface, &formatCount, formats)
		if err := enumerateError(res); err != nil {
			return details, errors.Wrap(err, "failed to list device surface formats")
		}
		for _, format := range formats[:formatCount] {
			format.Deref()
			details.formats = append(details.formats, format)
		}
	}

	var presentModeCount uint32
	res = vk.GetPhysicalDeviceSurfacePresentModes(device, r.Surface, &presentModeCount, nil)
	if err := VkError(res); err != nil {
		return details, errors.Wrap(err, "failed to query device surface present modes")
	}

	if presentModeCount != 0 {
		presentModes := make([]vk.PresentMode, presentModeCount)
		res = vk.GetPhysicalDeviceSurfacePresentModes(
			device, r.Surface, &presentModeCount, presentModes,
		)
		if err := enumerateError(res); err != nil {
			return details, errors.Wrap(err, "failed to list device surface present modes")
		}
		details.presentModes = presentModes[:presentModeCount]
	}

	return details, nil
}

// chooseSurfaceFormat prefers 8 bit BGRA sRGB and falls back to whatever the
// surface lists first.
func chooseSurfaceFormat(available []vk.SurfaceFormat) (vk.SurfaceFormat, error) {
	if len(available) == 0 {
		return vk.SurfaceFormat{}, errors.New("surface has no formats")
	}

	for _, format := range available {
		if format.Format == vk.FormatB8g8r8a8Srgb &&
			format.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return format, nil
		}
	}

	return available[0], nil
}

// choosePresentMode returns preferred when the surface supports it. FIFO is the
// only mode every surface has to support.
func choosePresentMode(preferred vk.PresentMode, available []vk.PresentMode) vk.PresentMode {
	for _, mode := range available {
		if mode == preferred {
			return mode
		}
	}

	return vk.PresentModeFifo
}

func presentModeByName(name string) vk.PresentMode {
	switch name {
	case config.PresentModeMailbox:
		return vk.PresentModeMailbox
	case config.PresentModeImmediate:
		return vk.PresentModeImmediate
	case config.PresentModeFIFORelaxed:
		return vk.PresentModeFifoRelaxed
	default:
		return vk.PresentModeFifo
	}
}

func presentModeName(mode vk.PresentMode) string {
	switch mode {
	case vk.PresentModeMailbox:
		return config.PresentModeMailbox
	case vk.PresentModeImmediate:
		return config.PresentModeImmediate
	case vk.PresentModeFifoRelaxed:
		return config.PresentModeFIFORelaxed
	case vk.PresentModeFifo:
		return config.PresentModeFIFO
	default:
		return "unknown"
	}
}

// chooseExtent uses the extent of the surface unless the window manager lets us
// pick it, which it signals with a width of math.MaxUint32. Then the framebuffer
// size in pixels is used, clamped to what the surface supports.
func chooseExtent(capabilities vk.SurfaceCapabilities, width, height int) vk.Extent2D {
	if capabilities.CurrentExtent.Width != math.MaxUint32 {
		return capabilities.CurrentExtent
	}

	return vk.Extent2D{
		Width: clamp(
			uint32(max(width, 0)),
			capabilities.MinImageExtent.Width,
			capabilities.MaxImageExtent.Width,
		),
		Height: clamp(
			uint32(max(height, 0)),
			capabilities.MinImageExtent.Height,
			capabilities.MaxImageExtent.Height,
		),
	}
}

// chooseImageCount asks for one image more than the minimum. A maximum of zero
// means there is no limit.
func chooseImageCount(capabilities vk.SurfaceCapabilities) uint32 {
	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && imageCount > capabilities.MaxImageCount {
		imageCount = capabilities.MaxImageCount
	}
	return imageCount
}

func clamp[T cmp.Ordered](val, min, max T) T {
	if val < min {
		val = min
	}
	if val > max {
		val = max
	}
	return val
}
