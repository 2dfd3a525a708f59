package gpu

import (
	"context"
	"log/slog"
	"unsafe"

	"hello-vulkan/config"
	"hello-vulkan/queues"
	"hello-vulkan/window"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

const engineName = "No Engine"

// deviceExtensions is the list of device extensions needed by the programs.
var deviceExtensions = []string{
	vk.KhrSwapchainExtensionName,
}

// Resource owns the Vulkan objects which every program needs: the instance, the
// window surface, the physical and logical devices with their queues and the
// swapchain.
type Resource struct {
	log    *slog.Logger
	cfg    config.Vulkan
	title  string
	window window.Window

	Instance       vk.Instance
	Surface        vk.Surface
	PhysicalDevice vk.PhysicalDevice

	// Device is the logical device created for interfacing with the physical device.
	Device vk.Device

	Families      queues.FamilyIndices
	GraphicsQueue vk.Queue
	PresentQueue  vk.Queue

	Swapchain Swapchain

	debugCallback vk.DebugReportCallback
}

// NewResource returns a Resource which will draw into win. Nothing is created
// until Init is called.
func NewResource(win window.Window, cfg config.Vulkan, title string, logger *slog.Logger) *Resource {
	return &Resource{
		log:            logger,
		cfg:            cfg,
		title:          title,
		window:         win,
		PhysicalDevice: vk.PhysicalDevice(vk.NullHandle),
		Device:         vk.Device(vk.NullHandle),
		Surface:        vk.NullSurface,
		Swapchain:      Swapchain{Handle: vk.NullSwapchain},
		debugCallback:  vk.DebugReportCallback(vk.NullHandle),
	}
}

// Init creates everything up to and including the swapchain. On failure the
// objects created so far are left for Destroy.
func (r *Resource) Init() error {
	vk.SetGetInstanceProcAddr(r.window.InstanceProcAddr())

	if err := vk.Init(); err != nil {
		return errors.Wrap(err, "failed to init Vulkan Go")
	}

	if err := r.createInstance(); err != nil {
		return errors.Wrap(err, "createInstance")
	}

	if err := r.setupDebugCallback(); err != nil {
		return errors.Wrap(err, "setupDebugCallback")
	}

	surface, err := r.window.CreateSurface(r.Instance)
	if err != nil {
		return errors.Wrap(err, "createSurface")
	}
	r.Surface = surface

	if err := r.pickPhysicalDevice(); err != nil {
		return errors.Wrap(err, "pickPhysicalDevice")
	}

	if err := r.createLogicalDevice(); err != nil {
		return errors.Wrap(err, "createLogicalDevice")
	}

	if err := r.CreateSwapchain(); err != nil {
		return errors.Wrap(err, "createSwapChain")
	}

	return nil
}

// Destroy releases everything in the reverse order of creation. It is safe to
// call after a failed Init.
func (r *Resource) Destroy() {
	if r.Device != vk.Device(vk.NullHandle) {
		r.DestroySwapchain()
		vk.DestroyDevice(r.Device, nil)
		r.Device = vk.Device(vk.NullHandle)
	}

	if r.Instance == vk.Instance(vk.NullHandle) {
		return
	}

	if r.Surface != vk.NullSurface {
		vk.DestroySurface(r.Instance, r.Surface, nil)
		r.Surface = vk.NullSurface
	}

	if r.debugCallback != vk.DebugReportCallback(vk.NullHandle) {
		vk.DestroyDebugReportCallback(r.Instance, r.debugCallback, nil)
		r.debugCallback = vk.DebugReportCallback(vk.NullHandle)
	}

	vk.DestroyInstance(r.Instance, nil)
	r.Instance = vk.Instance(vk.NullHandle)
}

// WaitIdle blocks until the device has finished all submitted work.
func (r *Resource) WaitIdle() error {
	if r.Device == vk.Device(vk.NullHandle) {
		return nil
	}
	return errors.Wrap(VkError(vk.DeviceWaitIdle(r.Device)), "device wait idle")
}

func (r *Resource) createInstance() error {
	layers := cstrings(r.cfg.ValidationLayers)

	if r.cfg.Validation {
		available, err := instanceLayers()
		if err != nil {
			return err
		}
		if missing := missingNames(layers, available); len(missing) > 0 {
			return errors.Newf("validation layers requested but not available: %q", missing)
		}
	}

	appInfo := vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   cstring(r.title),
		ApplicationVersion: vk.MakeVersion(1, 0, 0),
		PEngineName:        cstring(engineName),
		EngineVersion:      vk.MakeVersion(1, 0, 0),
		ApiVersion:         vk.ApiVersion10,
	}

	extensions := r.window.RequiredInstanceExtensions()
	if r.cfg.Validation {
		extensions = append(extensions, vk.ExtDebugReportExtensionName)
	}
	extensions = cstrings(extensions)

	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
	}

	if r.cfg.Validation {
		createInfo.EnabledLayerCount = uint32(len(layers))
		createInfo.PpEnabledLayerNames = layers
	}

	var instance vk.Instance
	if err := VkError(vk.CreateInstance(&createInfo, nil, &instance)); err != nil {
		return errors.Wrap(err, "failed to create Vulkan instance")
	}
	r.Instance = instance

	if err := vk.InitInstance(instance); err != nil {
		return errors.Wrap(err, "failed to init instance functions")
	}

	return nil
}

func (r *Resource) setupDebugCallback() error {
	if !r.cfg.Validation {
		return nil
	}

	createInfo := vk.DebugReportCallbackCreateInfo{
		SType: vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags: vk.DebugReportFlags(
			vk.DebugReportErrorBit |
				vk.DebugReportWarningBit |
				vk.DebugReportPerformanceWarningBit,
		),
		PfnCallback: r.debugReport,
	}

	var callback vk.DebugReportCallback
	res := vk.CreateDebugReportCallback(r.Instance, &createInfo, nil, &callback)
	if err := VkError(res); err != nil {
		return errors.Wrap(err, "create debug callback")
	}
	r.debugCallback = callback

	return nil
}

func (r *Resource) debugReport(
	flags vk.DebugReportFlags,
	objectType vk.DebugReportObjectType,
	object uint64,
	location uint,
	messageCode int32,
	layerPrefix string,
	message string,
	userData unsafe.Pointer,
) vk.Bool32 {
	level := slog.LevelWarn
	if flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0 {
		level = slog.LevelError
	}

	r.log.Log(context.Background(), level, message,
		"layer", layerPrefix,
		"code", messageCode,
		"object_type", objectType,
	)
	return vk.False
}

func (r *Resource) pickPhysicalDevice() error {
	var deviceCount uint32
	err := VkError(vk.EnumeratePhysicalDevices(r.Instance, &deviceCount, nil))
	if err != nil {
		return errors.Wrap(err, "failed to get the number of physical devices")
	}
	if deviceCount == 0 {
		return errors.Wrap(ErrNoSuitableDevice, "no GPUs with Vulkan support")
	}

	devices := make([]vk.PhysicalDevice, deviceCount)
	err = VkError(vk.EnumeratePhysicalDevices(r.Instance, &deviceCount, devices))
	if err != nil {
		return errors.Wrap(err, "failed to enumerate the physical devices")
	}

	var (
		selected vk.PhysicalDevice
		score    uint32
	)

	for _, device := range devices {
		deviceScore := r.deviceScore(device)

		if deviceScore > score {
			selected = device
			score = deviceScore
		}
	}

	if score == 0 {
		return ErrNoSuitableDevice
	}

	r.PhysicalDevice = selected
	r.Families = r.findQueueFamilies(selected)
	return nil
}

func (r *Resource) deviceScore(device vk.PhysicalDevice) uint32 {
	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(device, &properties)
	properties.Deref()

	score := scoreDevice(properties.DeviceType, r.isDeviceSuitable(device))

	r.log.Debug("available device",
		"name", vk.ToString(properties.DeviceName[:]),
		"score", score,
	)

	return score
}

func (r *Resource) isDeviceSuitable(device vk.PhysicalDevice) bool {
	indices := r.findQueueFamilies(device)
	if !indices.IsComplete() {
		return false
	}

	available, err := deviceExtensionNames(device)
	if err != nil {
		r.log.Warn("enumerating device extensions", "error", err)
		return false
	}
	if missing := missingNames(deviceExtensions, available); len(missing) > 0 {
		return false
	}

	support, err := r.querySwapchainSupport(device)
	if err != nil {
		r.log.Warn("querying swapchain support", "error", err)
		return false
	}

	return support.adequate()
}

// scoreDevice returns how suitable a device is for the programs. Bigger score
// means better. Zero means the device cannot be used.
func scoreDevice(deviceType vk.PhysicalDeviceType, suitable bool) uint32 {
	if !suitable {
		return 0
	}

	if deviceType == vk.PhysicalDeviceTypeDiscreteGpu {
		return 1000
	}
	return 1
}

// findQueueFamilies returns a FamilyIndices populated with Vulkan queue families
// needed by the programs.
func (r *Resource) findQueueFamilies(device vk.PhysicalDevice) queues.FamilyIndices {
	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, nil)

	properties := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, properties)

	families := make([]queues.Family, len(properties))
	for i, family := range properties {
		family.Deref()

		families[i].Graphics = family.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0

		var hasPresent vk.Bool32
		err := VkError(
			vk.GetPhysicalDeviceSurfaceSupport(device, uint32(i), r.Surface, &hasPresent),
		)
		if err != nil {
			r.log.Warn("querying surface support", "family", i, "error", err)
			continue
		}
		families[i].Present = hasPresent.B()
	}

	return queues.Select(families)
}

func (r *Resource) createLogicalDevice() error {
	if !r.Families.IsComplete() {
		return errors.New("physical device does not have all the queues required")
	}

	var queueCreateInfos []vk.DeviceQueueCreateInfo
	for _, familyIndex := range r.Families.Unique() {
		queueCreateInfos = append(
			queueCreateInfos,
			vk.DeviceQueueCreateInfo{
				SType:            vk.StructureTypeDeviceQueueCreateInfo,
				QueueFamilyIndex: familyIndex,
				QueueCount:       1,
				PQueuePriorities: []float32{1.0},
			},
		)
	}

	extensions := cstrings(deviceExtensions)

	createInfo := vk.DeviceCreateInfo{
		SType:            vk.StructureTypeDeviceCreateInfo,
		PEnabledFeatures: []vk.PhysicalDeviceFeatures{{}},

		PQueueCreateInfos:    queueCreateInfos,
		QueueCreateInfoCount: uint32(len(queueCreateInfos)),

		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
	}

	if r.cfg.Validation {
		layers := cstrings(r.cfg.ValidationLayers)
		createInfo.PpEnabledLayerNames = layers
		createInfo.EnabledLayerCount = uint32(len(layers))
	}

	var device vk.Device
	err := VkError(vk.CreateDevice(r.PhysicalDevice, &createInfo, nil, &device))
	if err != nil {
		return errors.Wrap(err, "failed to create logical device")
	}
	r.Device = device

	var graphicsQueue vk.Queue
	vk.GetDeviceQueue(r.Device, r.Families.Graphics.Get(), 0, &graphicsQueue)
	r.GraphicsQueue = graphicsQueue

	var presentQueue vk.Queue
	vk.GetDeviceQueue(r.Device, r.Families.Present.Get(), 0, &presentQueue)
	r.PresentQueue = presentQueue

	return nil
}

func instanceLayers() ([]string, error) {
	var count uint32
	if err := VkError(vk.EnumerateInstanceLayerProperties(&count, nil)); err != nil {
		return nil, errors.Wrap(err, "counting instance layers")
	}

	layers := make([]vk.LayerProperties, count)
	if err := VkError(vk.EnumerateInstanceLayerProperties(&count, layers)); err != nil {
		return nil, errors.Wrap(err, "enumerating instance layers")
	}

	names := make([]string, 0, count)
	for _, layer := range layers {
		layer.Deref()
		names = append(names, vk.ToString(layer.LayerName[:]))
	}
	return names, nil
}

func deviceExtensionNames(device vk.PhysicalDevice) ([]string, error) {
	var count uint32
	res := vk.EnumerateDeviceExtensionProperties(device, "", &count, nil)
	if err := VkError(res); err != nil {
		return nil, errors.Wrap(err, "counting device extension properties")
	}

	extensions := make([]vk.ExtensionProperties, count)
	res = vk.EnumerateDeviceExtensionProperties(device, "", &count, extensions)
	if err := VkError(res); err != nil {
		return nil, errors.Wrap(err, "getting device extension properties")
	}

	names := make([]string, 0, count)
	for _, extension := range extensions {
		extension.Deref()
		names = append(names, vk.ToString(extension.ExtensionName[:]))
	}
	return names, nil
}

// missingNames returns the names from required which are not in available. The
// trailing NUL of C strings is ignored on both sides.
func missingNames(required, available []string) []string {
	have := make(map[string]struct{}, len(available))
	for _, name := range available {
		have[trimNUL(name)] = struct{}{}
	}

	var missing []string
	for _, name := range required {
		if _, ok := have[trimNUL(name)]; !ok {
			missing = append(missing, trimNUL(name))
		}
	}
	return missing
}
